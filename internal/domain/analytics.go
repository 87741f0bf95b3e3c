package domain

// UsageBucket is one row of a grouped usage breakdown.
type UsageBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Analytics summarizes a user's generation history.
type Analytics struct {
	TotalLetters int64         `json:"totalLetters"`
	TotalTokens  int64         `json:"totalTokens"`
	MonthlyUsage int64         `json:"monthlyUsage"`
	MonthlyLimit int64         `json:"limit"`
	Unmetered    bool          `json:"unmetered"`
	Plan         string        `json:"plan"`
	ByTone       []UsageBucket `json:"byTone"`
	ByLanguage   []UsageBucket `json:"byLanguage"`
}
