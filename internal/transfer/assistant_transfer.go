package transfer

type CaptionRequest struct {
	Prompt   string `json:"prompt"`
	Platform string `json:"platform"`
	Tone     string `json:"tone"`
}

type HashtagRequest struct {
	Content  string `json:"content"`
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

type RepurposeRequest struct {
	Caption        string `json:"caption"`
	TargetPlatform string `json:"target_platform"`
}

// Chat completion wire format shared by OpenRouter and other OpenAI-compatible
// providers.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}
