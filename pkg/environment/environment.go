// Package environment names the deployment stage a process runs in.
package environment

import "strings"

// Environment represents application environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Parse normalizes an APP_ENV style value. Short aliases ("dev", "stage",
// "prod") are accepted; anything unknown is Development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Production), "prod":
		return Production
	case string(Staging), "stage":
		return Staging
	default:
		return Development
	}
}

func (e Environment) IsProduction() bool  { return e == Production }
func (e Environment) IsStaging() bool     { return e == Staging }
func (e Environment) IsDevelopment() bool { return e == Development }

func (e Environment) String() string { return string(e) }
