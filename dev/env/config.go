package devenv

// LiveTestConfig holds the credentials of a real account, tests against the production
// portal are skipped when dev/.state/telenet.json5 does not exist.
type LiveTestConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Language string `json:"language"`
}
