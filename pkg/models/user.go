package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the platform account a verification request belongs to. Only the
// fields the verification core reads and maintains live here; profile and
// billing data belong to other services.
//
// KYCStatus and OwnerApproved are a denormalized cache of the requester's
// latest VerificationRequest outcome. The request row is authoritative; the
// cache is rewritten in the same transaction as any request status change,
// so readers may trust it for display only.
type User struct {
	ID               primitive.ObjectID  `bson:"_id" json:"id"`
	Email            string              `bson:"email" json:"email"`
	FirstName        string              `bson:"first_name" json:"firstName"`
	LastName         string              `bson:"last_name" json:"lastName"`
	Role             UserRole            `bson:"role" json:"role"`
	PropertyOwnerID  *primitive.ObjectID `bson:"property_owner_id,omitempty" json:"propertyOwnerId,omitempty"`
	KYCStatus        RequestStatus       `bson:"kyc_status,omitempty" json:"kycStatus,omitempty"`
	OwnerApproved    bool                `bson:"owner_approved" json:"ownerApproved"`
	StorageUsedBytes int64               `bson:"storage_used_bytes" json:"storageUsedBytes"`
	CreatedAt        time.Time           `bson:"created_at" json:"createdAt"`
	ModifiedAt       time.Time           `bson:"modified_at" json:"modifiedAt"`
}

// Category maps a platform role to the requester category recorded on a
// verification request. Tenant requests are reviewed by their property
// owner, every other category by a platform admin.
func (u User) Category() RequesterCategory {
	switch u.Role {
	case RoleTenant:
		return CategoryTenant
	case RoleDeveloper:
		return CategoryDeveloper
	default:
		return CategoryPropertyOwner
	}
}
