package firestore

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/firestore"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/bizledger/infra/provider"
)

const databaseName = "(default)"

// SetupFirestore enables the API, creates the native-mode database and turns
// on expiry for assistant conversation messages.
func SetupFirestore(ctx *pulumi.Context, prov *gcp.Provider, s provider.Settings) (*firestore.Database, error) {
	svc, err := provider.EnableService(ctx, prov, "firestore", "firestore.googleapis.com")
	if err != nil {
		return nil, err
	}

	db, err := firestore.NewDatabase(ctx, "firestoreDatabase", &firestore.DatabaseArgs{
		Project:    pulumi.String(s.ProjectID),
		Name:       pulumi.String(databaseName),
		LocationId: pulumi.String(s.Region),
		Type:       pulumi.String("FIRESTORE_NATIVE"),
	},
		pulumi.Provider(prov),
		pulumi.DependsOn([]pulumi.Resource{svc}),
	)
	if err != nil {
		return nil, err
	}

	// businesses/{token}/ai_sessions/{session}/messages documents carry
	// expiresAt.
	_, err = firestore.NewField(ctx, "aiMessageTTL", &firestore.FieldArgs{
		Project:    pulumi.String(s.ProjectID),
		Database:   db.Name,
		Collection: pulumi.String("messages"),
		Field:      pulumi.String("expiresAt"),
		TtlConfig:  &firestore.FieldTtlConfigArgs{},
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
