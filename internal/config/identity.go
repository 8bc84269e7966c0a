package config

// Identity variables, read verbatim.
const (
	EnvNodeName     = "CONDUIT_PROXY_NODE_NAME"
	EnvPodName      = "CONDUIT_PROXY_POD_NAME"
	EnvPodNamespace = "CONDUIT_PROXY_POD_NAMESPACE"
)

// Identity describes where the proxy process runs.
type Identity struct {
	NodeName     string
	PodName      string
	PodNamespace string
}

// LoadIdentity reads the identity variables. Unset variables are empty.
func LoadIdentity(env Env) (Identity, error) {
	var id Identity
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{EnvNodeName, &id.NodeName},
		{EnvPodName, &id.PodName},
		{EnvPodNamespace, &id.PodNamespace},
	} {
		v, _, err := envVar(env, f.name)
		if err != nil {
			return Identity{}, err
		}
		*f.dst = v
	}
	return id, nil
}
