// Package domain holds the core data types shared across the outreach
// engine: campaigns, leads, jobs, sender allocations, and email tasks.
// Types here carry no behavior beyond small read-only helpers; all
// persistence and orchestration lives in other packages.
package domain
