package progress

// CompletionRequest is the body of POST /gamification/challenge-solved.
type CompletionRequest struct {
	ChallengeID    string `json:"challengeId"`
	Stars          int    `json:"stars"`
	CompletionTime int    `json:"completionTime"`
	FailedAttempts int    `json:"failedAttempts"`
	HintsUsed      int    `json:"hintsUsed"`
	CodeLines      int    `json:"codeLines"`
}

// CompletionResponse wraps the result of a save.
type CompletionResponse struct {
	Data    Result `json:"data"`
	Message string `json:"message,omitempty"`
}

// Result is what the backend awards for a completion.
type Result struct {
	Stats        Stats         `json:"stats"`
	XPGained     int           `json:"xpGained"`
	Achievements []Achievement `json:"achievements"`
}

// Stats are the player's totals after the save.
type Stats struct {
	XP                   int `json:"xp"`
	Level                int `json:"level"`
	ChallengesSolved     int `json:"challengesSolved"`
	TotalStars           int `json:"totalStars"`
	TotalFailedAttempts  int `json:"totalFailedAttempts"`
	HintsUsed            int `json:"hintsUsed"`
	TotalPlaytimeSeconds int `json:"totalPlaytimeSeconds"`
}

// Achievement is one badge, new or previously earned.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsNew       bool   `json:"isNew"`
}

// ChallengeProgress is the remote record of one level.
type ChallengeProgress struct {
	Completed      bool    `json:"completed"`
	Stars          int     `json:"stars"`
	TotalAttempts  int     `json:"totalAttempts"`
	FailedAttempts int     `json:"failedAttempts"`
	HintsUsed      int     `json:"hintsUsed"`
	BestTime       float64 `json:"bestTime"`
}

// ChallengesResponse is the body of GET /gamification/challenges.
type ChallengesResponse struct {
	Data    map[string]ChallengeProgress `json:"data"`
	Message string                       `json:"message,omitempty"`
}

// ErrorResponse is the body of non-2xx responses.
type ErrorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
}
