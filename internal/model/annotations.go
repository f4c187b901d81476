package model

import (
	"maps"
	"slices"
)

// Annotation namespaces.
const (
	NSRepresentation         = "Representation"
	NSReference              = "Reference"
	NSAppliedIDs             = "AppliedIds"
	NSGaStep                 = "GaStep"
	NSPerformanceInformation = "PerformanceInformation"
	NSGaWorkloadEvent        = "GaWorkloadEvent"
	NSGaExecHost             = "GaExecHost"
	NSGaScenario             = "GaScenario"
)

// Reference annotation keys recorded on participants and messages.
const (
	RefPackage                    = "package"
	RefClass                      = "class"
	RefFullQualifiedName          = "fullQualifiedName"
	RefSignature                  = "signature"
	RefFullQualifiedNameSignature = "fullQualifiedNameSignature"
)

// Annotations is a namespaced property bag: namespace -> key -> value.
//
// Typed fields carry everything the merge engine computes with. Annotations
// only carry descriptive reference metadata and the flattened projection
// written to the store.
type Annotations map[string]map[string]string

// Set stores value under (ns, key), creating the namespace if needed.
func (a *Annotations) Set(ns, key, value string) {
	if *a == nil {
		*a = make(Annotations)
	}
	bag, ok := (*a)[ns]
	if !ok {
		bag = make(map[string]string)
		(*a)[ns] = bag
	}
	bag[key] = value
}

// Get returns the value under (ns, key).
func (a Annotations) Get(ns, key string) (string, bool) {
	v, ok := a[ns][key]
	return v, ok
}

// Has reports whether namespace ns is present.
func (a Annotations) Has(ns string) bool {
	_, ok := a[ns]
	return ok
}

// Clone returns a deep copy.
func (a Annotations) Clone() Annotations {
	if a == nil {
		return nil
	}
	out := make(Annotations, len(a))
	for ns, bag := range a {
		out[ns] = maps.Clone(bag)
	}
	return out
}

// Annotation is one flattened (owner, namespace, key) -> value entry.
type Annotation struct {
	Owner     string `json:"owner"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// Entries flattens the bag for owner in namespace then key order.
func (a Annotations) Entries(owner string) []Annotation {
	var out []Annotation
	for _, ns := range slices.Sorted(maps.Keys(a)) {
		bag := a[ns]
		for _, k := range slices.Sorted(maps.Keys(bag)) {
			out = append(out, Annotation{Owner: owner, Namespace: ns, Key: k, Value: bag[k]})
		}
	}
	return out
}
