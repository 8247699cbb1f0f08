package provider

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// Settings are the stack values every component reads.
type Settings struct {
	ProjectID string
	Region    string
}

func Load(ctx *pulumi.Context) Settings {
	gcpCfg := config.New(ctx, "gcp")
	return Settings{
		ProjectID: gcpCfg.Require("project"),
		Region:    gcpCfg.Require("region"),
	}
}

func SetupDefaultProvider(ctx *pulumi.Context, s Settings) (*gcp.Provider, error) {
	return gcp.NewProvider(ctx, "gcpProvider", &gcp.ProviderArgs{
		Project:             pulumi.String(s.ProjectID),
		Region:              pulumi.String(s.Region),
		UserProjectOverride: pulumi.Bool(true),
	})
}

// EnableService turns on a Google API for the project.
func EnableService(ctx *pulumi.Context, prov *gcp.Provider, name, api string) (*projects.Service, error) {
	return projects.NewService(ctx, name, &projects.ServiceArgs{
		Service:          pulumi.String(api),
		DisableOnDestroy: pulumi.Bool(false),
	},
		pulumi.Provider(prov),
	)
}

// GrantRole binds a project role to a service account.
func GrantRole(ctx *pulumi.Context, prov *gcp.Provider, s Settings, name, role string, sa *serviceaccount.Account, res ...pulumi.Resource) error {
	_, err := projects.NewIAMMember(ctx, name, &projects.IAMMemberArgs{
		Project: pulumi.String(s.ProjectID),
		Role:    pulumi.String(role),
		Member:  sa.Member,
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
	return err
}
