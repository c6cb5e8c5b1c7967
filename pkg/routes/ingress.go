package routes

import (
	"hash/fnv"
	"sort"
	"strconv"

	networkingv1 "k8s.io/api/networking/v1"
)

// RouteID derives a stable, non-negative route ID from an ingress key. The
// hash is cut to 31 bits so the ID is the same on 32-bit platforms.
func RouteID(namespace, name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(namespace + "/" + name))
	return int(h.Sum32() & 0x7fffffff)
}

// FromIngresses maps each ingress to a route. HTTP paths become rules in
// order; the default backend, when set, becomes a trailing catch-all rule.
// Routes are returned sorted by label.
func FromIngresses(ingresses []networkingv1.Ingress) []Route {
	out := make([]Route, 0, len(ingresses))
	for i := range ingresses {
		out = append(out, fromIngress(&ingresses[i]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func fromIngress(ing *networkingv1.Ingress) Route {
	r := Route{
		ID:       RouteID(ing.Namespace, ing.Name),
		Label:    ing.Namespace + "/" + ing.Name,
		Protocol: ProtocolHTTP,
		Rules:    []Rule{},
	}
	if len(ing.Spec.TLS) > 0 {
		r.Protocol = ProtocolHTTPS
	}

	for _, ir := range ing.Spec.Rules {
		if ir.HTTP == nil {
			r.Rules = append(r.Rules, Rule{
				Hostname:   ir.Host,
				MatchField: MatchHost,
				MatchValue: ir.Host,
			})
			continue
		}
		for _, p := range ir.HTTP.Paths {
			r.Rules = append(r.Rules, Rule{
				Hostname:       ir.Host,
				MatchField:     matchField(p.PathType),
				MatchValue:     p.Path,
				ServiceTargets: backendTargets(p.Backend),
			})
		}
	}

	if ing.Spec.DefaultBackend != nil {
		r.Rules = append(r.Rules, Rule{
			MatchField:     MatchAny,
			MatchValue:     "*",
			ServiceTargets: backendTargets(*ing.Spec.DefaultBackend),
		})
	}
	return r
}

func matchField(pt *networkingv1.PathType) string {
	if pt != nil && *pt == networkingv1.PathTypeExact {
		return MatchPath
	}
	return MatchPathPrefix
}

func backendTargets(b networkingv1.IngressBackend) []ServiceTarget {
	switch {
	case b.Service != nil:
		port := b.Service.Port.Name
		if port == "" {
			port = strconv.Itoa(int(b.Service.Port.Number))
		}
		return []ServiceTarget{{Label: b.Service.Name + ":" + port, Percentage: 100}}
	case b.Resource != nil:
		return []ServiceTarget{{Label: b.Resource.Kind + "/" + b.Resource.Name, Percentage: 100}}
	}
	return nil
}
