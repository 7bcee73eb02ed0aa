package reporting

import (
	"os"
	"os/user"
	"strings"
)

// RunIdentity names who produced a report and where. It is presentational
// only.
type RunIdentity struct {
	User   string
	Host   string
	Domain string
}

// LocalIdentity returns the identity of the current process, falling back to
// environment variables and placeholders where the OS does not tell.
func LocalIdentity() RunIdentity {
	id := RunIdentity{User: "unknown", Host: "localhost"}

	if u, err := user.Current(); err == nil && u.Username != "" {
		id.User = u.Username
	} else if name := firstEnv("USER", "USERNAME"); name != "" {
		id.User = name
	}
	// Windows reports DOMAIN\user
	if domain, name, ok := strings.Cut(id.User, `\`); ok {
		id.Domain, id.User = domain, name
	}

	if host, err := os.Hostname(); err == nil && host != "" {
		id.Host = host
	}

	if id.Domain == "" {
		id.Domain = firstEnv("USERDOMAIN")
	}
	if id.Domain == "" {
		id.Domain = id.Host
	}
	return id
}

// RunUser is the value of the runUser attribute.
func (id RunIdentity) RunUser() string {
	return id.Domain + `\` + id.User
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
