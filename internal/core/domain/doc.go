// Package domain holds the catalog's value objects (Money, OrderStatus,
// Email, UserID), its entities (Order, Product, User) and the error taxonomy
// they report with.
//
// Every constructor, update and state transition returns a
// result.Result; entities are values and are never changed in place.
package domain
