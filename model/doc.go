// Package model contains the entity model of the laboratory workflow: catalog
// tests, customers, actors, orders, order items and their version snapshots.
//
// Entities reference each other by identifier only (an order lists the ids of
// its items, an item keeps the id of its order and test). State is derived
// from the nullable timestamps each entity carries; the transition methods
// defined here validate preconditions and stamp those timestamps, returning
// ErrInvalidTransition without touching the entity when a precondition fails.
package model
