package types

type WorkHours struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type Preferences struct {
	Tone      string    `json:"tone" yaml:"tone"`
	WorkHours WorkHours `json:"work_hours" yaml:"work_hours"`
}

// UserProfile is static context handed to every planning call.
type UserProfile struct {
	Name        string      `json:"name" yaml:"name"`
	Timezone    string      `json:"timezone" yaml:"timezone"`
	Preferences Preferences `json:"preferences" yaml:"preferences"`
}

func DefaultUserProfile() UserProfile {
	return UserProfile{
		Name:     "Alex",
		Timezone: "America/Los_Angeles",
		Preferences: Preferences{
			Tone:      "friendly and professional",
			WorkHours: WorkHours{Start: "09:00", End: "17:00"},
		},
	}
}
