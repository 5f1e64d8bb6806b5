package topology

import (
	"fmt"

	"github.com/yaegashi/botpressops/domain/model"
	"k8s.io/apimachinery/pkg/api/resource"
)

// dataVolume is the pod volume name of the claim owned by an AppService.
const dataVolume = "data"

// AppServiceArgs configures an AppService.
type AppServiceArgs struct {
	Namespace    *model.Namespace
	Name         string
	Replicas     int32
	Storage      string
	StorageClass string
}

// AppService provisions the storage claim of one workload and guarantees the
// shared ingress controller exists. Components hold it and delegate to it.
type AppService struct {
	shared     *Shared
	ns         *model.Namespace
	name       string
	replicas   int32
	claim      *model.StorageClaim
	deployment *model.Workload
	service    *model.Service
}

// NewAppService declares the storage claim and ensures the ingress controller.
func NewAppService(shared *Shared, args AppServiceArgs) (*AppService, error) {
	if shared == nil || args.Namespace == nil {
		return nil, fmt.Errorf("app service %s: shared context and namespace are required: %w", args.Name, model.ErrContract)
	}
	if args.Name == "" {
		return nil, fmt.Errorf("app service: name is required: %w", model.ErrContract)
	}
	if args.Replicas < 1 {
		return nil, fmt.Errorf("app service %s: replicas must be positive, got %d", args.Name, args.Replicas)
	}
	if _, err := resource.ParseQuantity(args.Storage); err != nil {
		return nil, fmt.Errorf("app service %s: invalid storage size %q: %w", args.Name, args.Storage, err)
	}

	claim := model.NewStorageClaim(args.Namespace.Name, args.Name+"-pvc", args.Storage)
	claim.StorageClass = args.StorageClass
	if _, err := shared.Graph.Add(claim, args.Namespace); err != nil {
		return nil, fmt.Errorf("declare storage claim: %w", err)
	}
	if _, err := shared.EnsureIngressController(); err != nil {
		return nil, err
	}

	return &AppService{
		shared:   shared,
		ns:       args.Namespace,
		name:     args.Name,
		replicas: args.Replicas,
		claim:    claim,
	}, nil
}

// Name returns the workload name.
func (a *AppService) Name() string { return a.name }

// Namespace returns the workload namespace.
func (a *AppService) Namespace() *model.Namespace { return a.ns }

// Claim returns the storage claim.
func (a *AppService) Claim() *model.StorageClaim { return a.claim }

// Shared returns the shared context.
func (a *AppService) Shared() *Shared { return a.shared }

// Deployment returns the workload or ErrNotInitialized.
func (a *AppService) Deployment() (*model.Workload, error) {
	if a.deployment == nil {
		return nil, fmt.Errorf("deployment %s: %w", a.name, model.ErrNotInitialized)
	}
	return a.deployment, nil
}

// Service returns the service or ErrNotInitialized.
func (a *AppService) Service() (*model.Service, error) {
	if a.service == nil {
		return nil, fmt.Errorf("service %s: %w", a.name, model.ErrNotInitialized)
	}
	return a.service, nil
}

// NewWorkload returns a workload skeleton with the claim mounted at mountPath.
func (a *AppService) NewWorkload(mountPath string) *model.Workload {
	w := model.NewWorkload(a.ns.Name, a.name)
	w.Replicas = a.replicas
	w.Container.Name = a.name
	w.Volumes = []model.Volume{{Name: dataVolume, ClaimName: a.claim.Name}}
	w.Container.VolumeMounts = []model.VolumeMount{{Name: dataVolume, MountPath: mountPath}}
	return w
}

// Deploy declares w as this service's deployment. It fails if the claim is
// missing or a deployment was already declared.
func (a *AppService) Deploy(w *model.Workload, dependsOn ...model.Resource) error {
	if a.claim == nil {
		return fmt.Errorf("deploy %s: storage claim is absent: %w", a.name, model.ErrContract)
	}
	if a.deployment != nil {
		return fmt.Errorf("deploy %s: deployment already declared: %w", a.name, model.ErrContract)
	}
	deps := append([]model.Resource{a.claim}, dependsOn...)
	if _, err := a.shared.Graph.Add(w, deps...); err != nil {
		return fmt.Errorf("declare deployment: %w", err)
	}
	a.deployment = w
	return nil
}

// Expose declares a ClusterIP service named <name>-service selecting the
// deployment. Calling it before Deploy is a contract violation.
func (a *AppService) Expose(portName string, port int32) (*model.Service, error) {
	if a.deployment == nil {
		return nil, fmt.Errorf("expose %s: workload not created: %w", a.name, model.ErrContract)
	}
	if a.service != nil {
		return a.service, nil
	}
	svc := model.NewService(a.ns.Name, a.name+"-service")
	svc.Selector = a.deployment.Labels
	svc.PortName = portName
	svc.Port = port
	svc.TargetPort = port
	if _, err := a.shared.Graph.Add(svc, a.deployment); err != nil {
		return nil, fmt.Errorf("declare service: %w", err)
	}
	a.service = svc
	return svc, nil
}
