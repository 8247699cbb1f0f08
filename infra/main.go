package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/GregMSThompson/bizledger/infra/cloudrun"
	"github.com/GregMSThompson/bizledger/infra/docker"
	"github.com/GregMSThompson/bizledger/infra/firestore"
	"github.com/GregMSThompson/bizledger/infra/provider"
	"github.com/GregMSThompson/bizledger/infra/secret"
	"github.com/GregMSThompson/bizledger/infra/vertex"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		s := provider.Load(ctx)
		appCfg := config.New(ctx, "bizledger")

		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx, s)
		if err != nil {
			return err
		}

		db, err := firestore.SetupFirestore(ctx, prov, s)
		if err != nil {
			return err
		}

		repo, err := docker.CreateCloudrunRepo(ctx, prov, s)
		if err != nil {
			return err
		}

		apiSA, err := cloudrun.CreateServiceAccount(ctx, prov, s)
		if err != nil {
			return err
		}

		opts := cloudrun.ServiceOptions{VertexModel: appCfg.Get("vertexModel")}
		if opts.VertexModel != "" {
			if err := vertex.SetupVertex(ctx, prov, s, apiSA); err != nil {
				return err
			}
		}

		// AMQP_URL reaches the container through Secret Manager
		if amqpURL, err := appCfg.TrySecret("amqpUrl"); err == nil {
			sm, err := secret.SetupSecretManager(ctx, prov)
			if err != nil {
				return err
			}
			opts.AMQPURLSecret, err = sm.AddSecret(ctx, "amqpUrlSecret", "bizledger-amqp-url", amqpURL, apiSA)
			if err != nil {
				return err
			}
			opts.HasAMQP = true
		}

		svc, err := cloudrun.DeployService(ctx, prov, s, apiSA, opts, db, repo)
		if err != nil {
			return err
		}

		ctx.Export("url", svc.Statuses.Index(pulumi.Int(0)).Url())
		return nil
	})
}
