package model

// Tone of the generated article
type Tone string

const (
	ToneProfessional   Tone = "professional"
	ToneCasual         Tone = "casual"
	ToneFriendly       Tone = "friendly"
	ToneAuthoritative  Tone = "authoritative"
	ToneConversational Tone = "conversational"
)

var ValidTones = []Tone{
	ToneProfessional, ToneCasual, ToneFriendly,
	ToneAuthoritative, ToneConversational,
}

// Structural templates
type Template string

const (
	TemplateHowTo      Template = "how-to"
	TemplateListicle   Template = "listicle"
	TemplateGuide      Template = "guide"
	TemplateReview     Template = "review"
	TemplateComparison Template = "comparison"
)

var ValidTemplates = []Template{
	TemplateHowTo, TemplateListicle, TemplateGuide,
	TemplateReview, TemplateComparison,
}

// Provider identifiers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// ErrorKind classifies a failed provider invocation. Kinds are assigned by
// the adapter that talked to the provider, never derived from error text
// downstream.
type ErrorKind string

const (
	ErrorKindAuth            ErrorKind = "auth"
	ErrorKindRateLimit       ErrorKind = "rate_limit"
	ErrorKindContentPolicy   ErrorKind = "content_policy"
	ErrorKindTimeout         ErrorKind = "timeout"
	ErrorKindInvalidResponse ErrorKind = "invalid_response"
	ErrorKindUnknown         ErrorKind = "unknown"
)

// Job phases
type JobPhase string

const (
	JobPhaseQueued      JobPhase = "queued"
	JobPhaseAnalyzing   JobPhase = "analyzing"
	JobPhaseStructuring JobPhase = "structuring"
	JobPhaseWriting     JobPhase = "writing"
	JobPhaseOptimizing  JobPhase = "optimizing"
	JobPhaseFinalizing  JobPhase = "finalizing"
	JobPhaseCompleted   JobPhase = "completed"
	JobPhaseError       JobPhase = "error"
)

// Terminal reports whether a job in this phase is immutable.
func (p JobPhase) Terminal() bool {
	return p == JobPhaseCompleted || p == JobPhaseError
}
