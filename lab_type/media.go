package lab_type

type ImageRequest struct {
	Prompt   string `json:"prompt"`
	Size     string `json:"size"`
	Style    string `json:"style"`
	Quality  string `json:"quality"`
	Provider string `json:"provider"`
}

type ImageResult struct {
	URL           string  `json:"url"`
	RevisedPrompt string  `json:"revised_prompt,omitempty"`
	CostEstimate  float64 `json:"cost_estimate"`
}

type VisionRequest struct {
	ImageURL     string `json:"image_url"`
	Detail       string `json:"detail"`
	ExtractText  bool   `json:"extract_text"`
	GenerateTags bool   `json:"generate_tags"`
}

type VisionAnalysis struct {
	Description   string   `json:"description"`
	Objects       []string `json:"objects"`
	Colors        []string `json:"colors"`
	Mood          string   `json:"mood"`
	Style         string   `json:"style"`
	ExtractedText []string `json:"extracted_text,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Confidence    float64  `json:"confidence"`
}
