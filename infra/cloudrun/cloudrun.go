package cloudrun

import (
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudrun"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/GregMSThompson/bizledger/infra/common"
	infradocker "github.com/GregMSThompson/bizledger/infra/docker"
	"github.com/GregMSThompson/bizledger/infra/provider"
)

// ServiceOptions carries the application settings that end up as container
// environment variables.
type ServiceOptions struct {
	VertexModel   string
	// AMQPURLSecret is the Secret Manager ID holding AMQP_URL. Only read when
	// HasAMQP is set.
	AMQPURLSecret pulumi.StringOutput
	HasAMQP       bool
}

// CreateServiceAccount creates the identity the API runs as, with Firestore
// read/write access.
func CreateServiceAccount(ctx *pulumi.Context, prov *gcp.Provider, s provider.Settings) (*serviceaccount.Account, error) {
	apiSA, err := serviceaccount.NewAccount(ctx, "apiServiceAccount", &serviceaccount.AccountArgs{
		AccountId:   pulumi.String("bizledger-api"),
		DisplayName: pulumi.String("bizledger API"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	if err := provider.GrantRole(ctx, prov, s, "firestoreAccess", "roles/datastore.user", apiSA); err != nil {
		return nil, err
	}
	return apiSA, nil
}

func DeployService(ctx *pulumi.Context,
	prov *gcp.Provider,
	s provider.Settings,
	apiSA *serviceaccount.Account,
	opts ServiceOptions,
	res ...pulumi.Resource) (*cloudrun.Service, error) {
	img, err := buildApiImage(ctx, s, res...)
	if err != nil {
		return nil, err
	}

	srv, err := provider.EnableService(ctx, prov, "cloudRunService", "run.googleapis.com")
	if err != nil {
		return nil, err
	}

	svc, err := createCloudRunService(ctx, prov, s, img, apiSA, opts, srv)
	if err != nil {
		return nil, err
	}

	if err := allowPublicAccess(ctx, prov, s, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func buildApiImage(ctx *pulumi.Context, s provider.Settings, res ...pulumi.Resource) (*docker.Image, error) {
	hash, err := common.GenerateHash("..")
	if err != nil {
		return nil, err
	}

	return docker.NewImage(ctx, "apiImage", &docker.ImageArgs{
		Build: docker.DockerBuildArgs{
			Platform:   pulumi.String("linux/amd64"),
			Context:    pulumi.String(".."),
			Dockerfile: pulumi.String("../cmd/api/Dockerfile"),
		},
		ImageName: pulumi.String(fmt.Sprintf("%s-docker.pkg.dev/%s/%s/bizledger-api:%s", s.Region, s.ProjectID, infradocker.RepositoryID, hash)),
	},
		pulumi.DependsOn(res),
	)
}

func createCloudRunService(ctx *pulumi.Context,
	prov *gcp.Provider,
	s provider.Settings,
	img *docker.Image,
	apiSA *serviceaccount.Account,
	opts ServiceOptions,
	res ...pulumi.Resource) (*cloudrun.Service, error) {
	crCfg := config.New(ctx, "cloudrun")
	appCfg := config.New(ctx, "bizledger")

	minScale := crCfg.Require("minScale")
	maxScale := crCfg.Require("maxScale")
	cpu := crCfg.Require("cpu")
	memory := crCfg.Require("memory")
	concurrency := crCfg.Require("concurrency")
	timeout, _ := strconv.Atoi(crCfg.Require("timeout"))

	envs := cloudrun.ServiceTemplateSpecContainerEnvArray{
		plainEnv("STORE_BACKEND", "firestore"),
		plainEnv("PROJECT_ID", s.ProjectID),
		plainEnv("REGION", s.Region),
		plainEnv("LOG_LEVEL", appCfg.Get("logLevel")),
		plainEnv("LOG_FORMAT", "json"),
		plainEnv("TIMEZONE", appCfg.Get("timezone")),
		plainEnv("DEMO_BUSINESS_TOKEN", appCfg.Get("demoBusinessToken")),
		plainEnv("VERTEX_MODEL", opts.VertexModel),
		plainEnv("AI_TTL", appCfg.Get("aiTTL")),
	}
	if opts.HasAMQP {
		envs = append(envs,
			plainEnv("AMQP_EXCHANGE", appCfg.Get("amqpExchange")),
			&cloudrun.ServiceTemplateSpecContainerEnvArgs{
				Name: pulumi.String("AMQP_URL"),
				ValueFrom: &cloudrun.ServiceTemplateSpecContainerEnvValueFromArgs{
					SecretKeyRef: &cloudrun.ServiceTemplateSpecContainerEnvValueFromSecretKeyRefArgs{
						Name: opts.AMQPURLSecret,
						Key:  pulumi.String("latest"),
					},
				},
			},
		)
	}

	return cloudrun.NewService(ctx, "apiService", &cloudrun.ServiceArgs{
		Location: pulumi.String(s.Region),

		Template: &cloudrun.ServiceTemplateArgs{
			Metadata: &cloudrun.ServiceTemplateMetadataArgs{
				Annotations: pulumi.StringMap{
					"autoscaling.knative.dev/minScale":         pulumi.String(minScale),
					"autoscaling.knative.dev/maxScale":         pulumi.String(maxScale),
					"run.googleapis.com/cpu":                   pulumi.String(cpu),
					"run.googleapis.com/memory":                pulumi.String(memory),
					"run.googleapis.com/cpu-throttling":        pulumi.String("true"),
					"run.googleapis.com/container-concurrency": pulumi.String(concurrency),
				},
			},

			Spec: &cloudrun.ServiceTemplateSpecArgs{
				ServiceAccountName: apiSA.Email,
				TimeoutSeconds:     pulumi.Int(timeout),

				Containers: cloudrun.ServiceTemplateSpecContainerArray{
					&cloudrun.ServiceTemplateSpecContainerArgs{
						Image: img.ImageName,
						Ports: cloudrun.ServiceTemplateSpecContainerPortArray{
							&cloudrun.ServiceTemplateSpecContainerPortArgs{
								ContainerPort: pulumi.Int(8080),
							},
						},
						Envs: envs,
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

// An empty value leaves the application default in place; the config loader
// treats "" as unset.
func plainEnv(name, value string) *cloudrun.ServiceTemplateSpecContainerEnvArgs {
	return &cloudrun.ServiceTemplateSpecContainerEnvArgs{
		Name:  pulumi.String(name),
		Value: pulumi.String(value),
	}
}

// Business tokens are opaque and unauthenticated, so the service is public.
func allowPublicAccess(ctx *pulumi.Context, prov *gcp.Provider, s provider.Settings, svc *cloudrun.Service) error {
	_, err := cloudrun.NewIamMember(ctx, "publicInvoker", &cloudrun.IamMemberArgs{
		Service:  svc.Name,
		Location: pulumi.String(s.Region),
		Role:     pulumi.String("roles/run.invoker"),
		Member:   pulumi.String("allUsers"),
	},
		pulumi.Provider(prov),
	)
	return err
}
