package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// This file centralizes all Redis cache keys and TTL values for the Tourly application
// Pattern: tourly:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

// Static Data (Long TTL: rarely changes)
const (
	TTL_STATIC_LONG  = 24 * time.Hour // 24 hours - for very stable data
	TTL_STATIC_SHORT = 6 * time.Hour  // 6 hours - for user profiles
)

// Semi-Static Data (Medium TTL: changes occasionally)
const (
	TTL_SEMI_STATIC_MEDIUM = 2 * time.Hour    // 2 hours - for tour details
	TTL_SEMI_STATIC_SHORT  = 1 * time.Hour    // 1 hour - for tour listings
	TTL_SEMI_STATIC_QUICK  = 15 * time.Minute // 15 minutes - for upcoming departures
)

// Dynamic Data (Short TTL: changes frequently)
const (
	TTL_DYNAMIC_MEDIUM = 10 * time.Minute // 10 minutes - for booking history
	TTL_DYNAMIC_SHORT  = 5 * time.Minute  // 5 minutes - for registration counts
	TTL_DYNAMIC_QUICK  = 2 * time.Minute  // 2 minutes - for availability listings
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "tourly"
)

// ================== AVAILABILITY MODULE ==================

// Availability Cache Keys
const (
	CACHE_KEY_AVAILABILITY_LIST   = CACHE_PREFIX + ":availability:list"         // + :tour:X:from:Y:to:Z
	CACHE_KEY_AVAILABILITY_DETAIL = CACHE_PREFIX + ":availability:detail:uuid:" // + availability-id
	CACHE_KEY_AVAILABILITY_QUOTE  = CACHE_PREFIX + ":availability:quote:uuid:"  // + availability-id:participants
)

// Availability Cache TTLs
const (
	TTL_AVAILABILITY_LIST   = TTL_DYNAMIC_QUICK  // 2 minutes
	TTL_AVAILABILITY_DETAIL = TTL_DYNAMIC_SHORT  // 5 minutes
	TTL_AVAILABILITY_QUOTE  = TTL_DYNAMIC_MEDIUM // 10 minutes
)

// ================== BOOKINGS MODULE ==================

// Booking Cache Keys
const (
	CACHE_KEY_USER_BOOKINGS  = CACHE_PREFIX + ":bookings:user:uuid:"   // + user-id:page:X
	CACHE_KEY_BOOKING_DETAIL = CACHE_PREFIX + ":bookings:detail:uuid:" // + booking-id
)

// Booking Cache TTLs
const (
	TTL_USER_BOOKINGS  = TTL_DYNAMIC_MEDIUM // 10 minutes
	TTL_BOOKING_DETAIL = TTL_DYNAMIC_MEDIUM // 10 minutes
)

// ================== TOURS MODULE ==================

// Custom Tour Cache Keys
const (
	CACHE_KEY_TOURS_LIST       = CACHE_PREFIX + ":tours:list"              // + :page:X:limit:Y
	CACHE_KEY_TOUR_DETAIL      = CACHE_PREFIX + ":tours:detail:uuid:"      // + tour-id
	CACHE_KEY_TOUR_SPOTS       = CACHE_PREFIX + ":tours:spots:uuid:"       // + tour-id
	CACHE_KEY_TOUR_REGISTRANTS = CACHE_PREFIX + ":tours:registrants:uuid:" // + tour-id
)

// Custom Tour Cache TTLs
const (
	TTL_TOURS_LIST  = TTL_SEMI_STATIC_SHORT // 1 hour
	TTL_TOUR_DETAIL = TTL_SEMI_STATIC_MEDIUM // 2 hours
	TTL_TOUR_SPOTS  = TTL_DYNAMIC_SHORT     // 5 minutes
)

// ================== AUTH MODULE ==================

// Auth Cache Keys
const (
	CACHE_KEY_USER_PROFILE = CACHE_PREFIX + ":auth:user:profile:uuid:" // + user-id
)

// Auth Cache TTLs
const (
	TTL_USER_PROFILE = TTL_STATIC_SHORT // 6 hours
)

// ================== CACHE INVALIDATION PATTERNS ==================

// Patterns for cache invalidation (used with SCAN-based deletion)
const (
	// Availability-related invalidation patterns
	PATTERN_INVALIDATE_AVAILABILITY_ALL  = CACHE_PREFIX + ":availability:*"
	PATTERN_INVALIDATE_AVAILABILITY_LIST = CACHE_PREFIX + ":availability:list*"

	// Tour-related invalidation patterns
	PATTERN_INVALIDATE_TOURS_ALL = CACHE_PREFIX + ":tours:*"

	// User-related invalidation patterns
	PATTERN_INVALIDATE_USER_ALL = CACHE_PREFIX + ":*:user:*" // + user-id + *
)

// ================== HELPER FUNCTIONS ==================

// BuildAvailabilityListKey constructs the listing key with query parameters
// Example: BuildAvailabilityListKey(tourID, from, to) -> "tourly:availability:list:tour:X:from:Y:to:Z"
func BuildAvailabilityListKey(tourID, from, to string) string {
	return CACHE_KEY_AVAILABILITY_LIST + ":tour:" + tourID + ":from:" + from + ":to:" + to
}

func BuildAvailabilityDetailKey(availabilityID string) string {
	return CACHE_KEY_AVAILABILITY_DETAIL + availabilityID
}

func BuildUserBookingsKey(userID string, page int) string {
	return CACHE_KEY_USER_BOOKINGS + userID + ":page:" + fmt.Sprintf("%d", page)
}

func BuildTourDetailKey(tourID string) string {
	return CACHE_KEY_TOUR_DETAIL + tourID
}

func BuildTourSpotsKey(tourID string) string {
	return CACHE_KEY_TOUR_SPOTS + tourID
}
