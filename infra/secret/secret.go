package secret

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/secretmanager"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/bizledger/infra/provider"
)

type Manager struct {
	prov    *gcp.Provider
	service pulumi.Resource
}

func SetupSecretManager(ctx *pulumi.Context, prov *gcp.Provider) (*Manager, error) {
	svc, err := provider.EnableService(ctx, prov, "secretManagerService", "secretmanager.googleapis.com")
	if err != nil {
		return nil, err
	}
	return &Manager{prov: prov, service: svc}, nil
}

// AddSecret stores value as the first version of secretID and grants the API
// service account read access to that secret only. It returns the secret ID
// for use in a Cloud Run secret reference.
func (m *Manager) AddSecret(ctx *pulumi.Context,
	resourceName,
	secretID string,
	value pulumi.StringInput,
	apiSA *serviceaccount.Account) (pulumi.StringOutput, error) {
	emptyString := pulumi.String("").ToStringOutput()
	s, err := secretmanager.NewSecret(ctx, resourceName, &secretmanager.SecretArgs{
		SecretId: pulumi.String(secretID),
		Replication: &secretmanager.SecretReplicationArgs{
			Auto: &secretmanager.SecretReplicationAutoArgs{},
		},
	},
		pulumi.Provider(m.prov),
		pulumi.DependsOn([]pulumi.Resource{m.service}),
	)
	if err != nil {
		return emptyString, err
	}

	_, err = secretmanager.NewSecretVersion(ctx, resourceName+"Version", &secretmanager.SecretVersionArgs{
		Secret:     s.ID(),
		SecretData: value,
	},
		pulumi.Provider(m.prov),
	)
	if err != nil {
		return emptyString, err
	}

	_, err = secretmanager.NewSecretIamMember(ctx, resourceName+"Accessor", &secretmanager.SecretIamMemberArgs{
		SecretId: s.SecretId,
		Role:     pulumi.String("roles/secretmanager.secretAccessor"),
		Member:   apiSA.Member,
	},
		pulumi.Provider(m.prov),
	)
	if err != nil {
		return emptyString, err
	}

	return s.SecretId, nil
}
