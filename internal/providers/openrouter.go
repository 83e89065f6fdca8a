package providers

import "net/http"

const (
	openRouterDefaultBase  = "https://openrouter.ai/api/v1"
	openRouterDefaultModel = "openai/gpt-4o-mini"
	openRouterReferer      = "https://github.com/shivaam-bhati/Conversational-Article-Explainer"
	openRouterTitle        = "Conversational Article Explainer"
)

// OpenRouterProvider wraps OpenAIProvider with OpenRouter's base URL, its
// provider-prefixed model names and the attribution headers it asks for.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(apiKey, apiBase, defaultModel string) *OpenRouterProvider {
	if apiBase == "" {
		apiBase = openRouterDefaultBase
	}
	if defaultModel == "" {
		defaultModel = openRouterDefaultModel
	}
	client := &http.Client{Transport: &headerTransport{
		base: http.DefaultTransport,
		headers: map[string]string{
			"HTTP-Referer": openRouterReferer,
			"X-Title":      openRouterTitle,
		},
	}}
	return &OpenRouterProvider{
		OpenAIProvider: newOpenAIProvider("openrouter", apiKey, apiBase, defaultModel, client),
	}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
