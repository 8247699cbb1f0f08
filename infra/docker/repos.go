package docker

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/artifactregistry"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/bizledger/infra/provider"
)

const RepositoryID = "bizledger"

func CreateCloudrunRepo(ctx *pulumi.Context, prov *gcp.Provider, s provider.Settings) (*artifactregistry.Repository, error) {
	svc, err := provider.EnableService(ctx, prov, "artifactRegistry", "artifactregistry.googleapis.com")
	if err != nil {
		return nil, err
	}

	return artifactregistry.NewRepository(ctx, "apiRepository", &artifactregistry.RepositoryArgs{
		Format:       pulumi.String("DOCKER"),
		RepositoryId: pulumi.String(RepositoryID),
		Location:     pulumi.String(s.Region),
		Description:  pulumi.String("bizledger API images"),
	},
		pulumi.Provider(prov),
		pulumi.DependsOn([]pulumi.Resource{svc}),
	)
}
