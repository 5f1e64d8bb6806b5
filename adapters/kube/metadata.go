package kube

// Centralized label keys used by the kube adapter.
// Keep these constants stable; changes are API-visible in clusters.
const (
	LabelAppK8sManagedBy = "app.kubernetes.io/managed-by"
	LabelAppK8sPartOf    = "app.kubernetes.io/part-of"
	LabelAppSelector     = "app"

	ManagedByValue = "botpressops"
	PartOfValue    = "botpress"
)
