package domain

// Credentials identify the user against the relay network.
// Both fields are empty strings when unset.
type Credentials struct {
	APIKey string `json:"api_key"`
	Secret string `json:"secret"`
}

// Complete reports whether both the key and the secret are set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.Secret != ""
}
