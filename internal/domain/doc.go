package domain

// Package domain contains the core concepts of the conversion dispatcher.
// Keep this package free of transport (HTTP) and infrastructure (exec/Chrome) concerns.
