// Package session stores quiz sessions keyed by user id.
package session
