package models

// PlatformSettings is supplied by the settings collaborator. The engine
// re-reads it at session start; mid-session changes do not retroactively alter
// an active monitor.
type PlatformSettings struct {
	SiteName       string `json:"site_name"`
	WelcomeMessage string `json:"welcome_message"`

	PassingScore       int  `json:"passing_score" validate:"min=0,max=100"`
	MaxAttempts        int  `json:"max_attempts" validate:"min=0,max=10"` // 0 = unlimited
	AllowRetakes       bool `json:"allow_retakes"`
	ShowCorrectAnswers bool `json:"show_correct_answers"`

	Security SecuritySettings `json:"security"`
}

func DefaultPlatformSettings() PlatformSettings {
	return PlatformSettings{
		SiteName:       "OQP",
		WelcomeMessage: "Ready to challenge yourself? Pick a quiz below.",
		PassingScore:   50,
		MaxAttempts:    0,
		AllowRetakes:   true,
		Security:       DefaultSecuritySettings(),
	}
}
