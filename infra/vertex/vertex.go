package vertex

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/bizledger/infra/provider"
)

// SetupVertex enables Vertex AI and lets the API service account call Gemini.
func SetupVertex(ctx *pulumi.Context, prov *gcp.Provider, s provider.Settings, apiSA *serviceaccount.Account) error {
	svc, err := provider.EnableService(ctx, prov, "vertex", "aiplatform.googleapis.com")
	if err != nil {
		return err
	}
	return provider.GrantRole(ctx, prov, s, "vertexUser", "roles/aiplatform.user", apiSA, svc)
}
