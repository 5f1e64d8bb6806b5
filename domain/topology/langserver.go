package topology

import (
	"fmt"
	"strconv"

	"github.com/yaegashi/botpressops/domain/model"
	"github.com/yaegashi/botpressops/domain/output"
)

const (
	LangServerName = "botpress-lang-server"
	LangServerPort = 3100
	langServerDir  = "/botpress/lang"
)

// LangServerArgs configures the language server.
type LangServerArgs struct {
	Namespace    *model.Namespace
	Image        string
	Tag          string
	Replicas     int32
	Storage      string
	StorageClass string
}

// LangServer runs the Botpress language server behind a ClusterIP service.
type LangServer struct {
	app *AppService
}

// NewLangServer declares the language server workload and service.
func NewLangServer(shared *Shared, args LangServerArgs) (*LangServer, error) {
	app, err := NewAppService(shared, AppServiceArgs{
		Namespace:    args.Namespace,
		Name:         LangServerName,
		Replicas:     args.Replicas,
		Storage:      args.Storage,
		StorageClass: args.StorageClass,
	})
	if err != nil {
		return nil, err
	}

	w := app.NewWorkload(langServerDir)
	w.Container.Image = imageRef(args.Image, args.Tag)
	w.Container.Command = []string{"./bp"}
	w.Container.Args = []string{"lang", "--langDir", langServerDir, "--port", strconv.Itoa(LangServerPort)}
	w.Container.Ports = []model.ContainerPort{{Name: "http", Port: LangServerPort}}
	if err := app.Deploy(w); err != nil {
		return nil, err
	}
	if _, err := app.Expose("http", LangServerPort); err != nil {
		return nil, err
	}
	return &LangServer{app: app}, nil
}

// App returns the underlying AppService.
func (l *LangServer) App() *AppService { return l.app }

// ServiceEndpoint returns http://<service>.<namespace>:<port>, resolved once
// the service has been applied.
func (l *LangServer) ServiceEndpoint() (output.Output[string], error) {
	svc, err := l.app.Service()
	if err != nil {
		return output.Output[string]{}, err
	}
	ns, port := svc.Namespace, svc.Port
	return output.Apply(svc.ID(), func(name string) string {
		return fmt.Sprintf("http://%s.%s:%d", name, ns, port)
	}), nil
}

func imageRef(image, tag string) string {
	if tag == "" {
		return image
	}
	return image + ":" + tag
}
