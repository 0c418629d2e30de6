// Package access consolidates the role and ownership predicates consumed by
// the booking engine, review aggregator and search pipeline. Every permission
// decision in an operation goes through a named predicate here rather than an
// inline boolean expression.
package access

import "stayspot/server/internal/models"

type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

// CanCreateBooking forbids booking your own listing.
func (p *Policy) CanCreateBooking(actor *models.User, listing *models.Listing) bool {
	return actor != nil && listing != nil && actor.ID != listing.UserID
}

// IsRenter reports whether the actor made the booking.
func (p *Policy) IsRenter(actor *models.User, booking *models.Booking) bool {
	return actor != nil && booking != nil && actor.ID == booking.UserID
}

// IsListingOwner reports whether the actor owns the booked listing.
func (p *Policy) IsListingOwner(actor *models.User, listing *models.Listing) bool {
	return actor != nil && listing != nil && actor.ID == listing.UserID
}

// CanViewBooking allows the renter and the listing owner.
func (p *Policy) CanViewBooking(actor *models.User, booking *models.Booking) bool {
	if p.IsRenter(actor, booking) {
		return true
	}
	return booking != nil && p.IsListingOwner(actor, booking.Listing)
}

// CanConfirm allows only the listing owner to confirm or decline.
func (p *Policy) CanConfirm(actor *models.User, booking *models.Booking) bool {
	return booking != nil && p.IsListingOwner(actor, booking.Listing)
}

// CanUseLandlordView requires the Landlord role.
func (p *Policy) CanUseLandlordView(actor *models.User) bool {
	return actor != nil && (actor.Role == models.RoleLandlord || actor.IsModerator())
}

// CanEditListing allows the owner and moderators.
func (p *Policy) CanEditListing(actor *models.User, listing *models.Listing) bool {
	if p.IsListingOwner(actor, listing) {
		return true
	}
	return actor != nil && actor.IsModerator()
}

// CanModerate gates the moderation queues and verify/reject/publish actions.
func (p *Policy) CanModerate(actor *models.User) bool {
	return actor != nil && actor.IsModerator()
}

// CanEditReview allows the author and moderators.
func (p *Policy) CanEditReview(actor *models.User, review *models.Review) bool {
	if actor == nil || review == nil {
		return false
	}
	return actor.ID == review.UserID || actor.IsModerator()
}

// CanDeleteReview is moderator-only.
func (p *Policy) CanDeleteReview(actor *models.User) bool {
	return actor != nil && actor.IsModerator()
}

// CanSeeUnverified lifts the verified requirement in search for moderators.
func (p *Policy) CanSeeUnverified(actor *models.User) bool {
	return actor != nil && actor.IsModerator()
}

// CanViewListing allows anyone for active verified listings, and the owner
// and moderators otherwise.
func (p *Policy) CanViewListing(actor *models.User, listing *models.Listing) bool {
	if listing == nil {
		return false
	}
	if listing.Status && listing.Verified {
		return true
	}
	return p.CanEditListing(actor, listing)
}
