package common

// Session is the identity of the caller, established once at process start
type Session struct {
	Org       string `json:"org"`
	Namespace string `json:"namespace"`
}

// Scope returns the prefix qualifying the identifiers of the session: the organization if any, else the user namespace
func (s Session) Scope() string {
	if s.Org != "" {
		return s.Org
	}
	return s.Namespace
}

// Qualify prefixes the id with the scope of the session if it is not already qualified
func (s Session) Qualify(id string) (string, error) {
	return QualifyID(s.Scope(), id)
}
