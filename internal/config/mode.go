package config

// Mode is the deployment mode.  It is detected once at load and drives the
// bootstrap behavior table.
type Mode int

const (
	// ModePersistent is a long-running server with an externally managed
	// database schema.
	ModePersistent Mode = iota
	// ModeEphemeral is a serverless invocation where process state,
	// including an in-memory database, does not outlive the instance.
	ModeEphemeral
)

// PlatformMarker is the environment variable the hosting platform sets on
// serverless instances.
const PlatformMarker = "VERCEL"

// MemoryDatabaseURL is the non-persistent database used in ephemeral mode.
const MemoryDatabaseURL = "sqlite:///:memory:"

func (m Mode) String() string {
	switch m {
	case ModeEphemeral:
		return "ephemeral"
	default:
		return "persistent"
	}
}

// DetectMode reads the platform marker through getenv.  Any non-empty
// value selects ModeEphemeral.
func DetectMode(getenv func(string) string) Mode {
	if getenv(PlatformMarker) != "" {
		return ModeEphemeral
	}
	return ModePersistent
}

// EffectiveDatabaseURL is a pure function of mode and the configured URL.
func EffectiveDatabaseURL(mode Mode, configured string) string {
	if mode == ModeEphemeral {
		return MemoryDatabaseURL
	}
	return configured
}
