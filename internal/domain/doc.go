// Package domain contains the core vocabulary entities, value objects and
// validation rules. It has no knowledge of persistence or scheduling
// policy; those live in the store and srs packages respectively.
package domain
