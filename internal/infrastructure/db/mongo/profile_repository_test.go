package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

func TestIDFilter(t *testing.T) {
	oid := primitive.NewObjectID()

	filter := idFilter(oid.Hex())
	in, ok := filter["_id"].(bson.M)["$in"].(bson.A)
	if !ok || len(in) != 2 {
		t.Fatalf("expected $in filter for object id, got %v", filter)
	}
	if in[0] != oid || in[1] != oid.Hex() {
		t.Fatalf("unexpected $in values %v", in)
	}

	filter = idFilter("user-42")
	if filter["_id"] != "user-42" {
		t.Fatalf("expected plain string filter, got %v", filter)
	}
}

func TestMongoProfile_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC)

	raw, err := bson.Marshal(bson.M{
		"_id":        oid,
		"email":      "owner@rentals.test",
		"first_name": "Grace",
		"last_name":  "Hopper",
		"role":       "owner",
		"kyc_status": domain.KYCVerified,
		"created_at": created,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var mp mongoProfile
	if err := bson.Unmarshal(raw, &mp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p := mp.toDomain("ignored")
	if p.ID != oid.Hex() {
		t.Fatalf("expected id %s, got %s", oid.Hex(), p.ID)
	}
	if p.Role != domain.RoleOwner {
		t.Fatalf("expected role normalised to OWNER, got %s", p.Role)
	}
	if p.FirstName != "Grace" || p.KYCStatus != domain.KYCVerified || !p.CreatedAt.Equal(created) {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.Projected {
		t.Fatal("stored profiles are never projected")
	}
}

func TestMongoProfile_StringID(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"_id": "user-42", "role": "CUSTOMER"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var mp mongoProfile
	if err := bson.Unmarshal(raw, &mp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p := mp.toDomain("fallback"); p.ID != "user-42" {
		t.Fatalf("expected string id, got %s", p.ID)
	}
}
