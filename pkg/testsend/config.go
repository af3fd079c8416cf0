package testsend

// DefaultFallbackSender is used when no other sender address is available.
const DefaultFallbackSender = "no-reply@notifykit.dev"

// Config holds the orchestrator settings.
type Config struct {
	FallbackSender string `env:"FALLBACK_SENDER" envDefault:"no-reply@notifykit.dev"`
}
