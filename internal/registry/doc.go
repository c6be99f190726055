// Package registry is the explicit function catalog and handler table that
// the rest of the application is wired through.
//
// Modules register their compiled Go parts at startup: scalar functions under
// the name that expressions call them by, and push message handlers under a
// descriptive name. No reflection or annotation scanning is involved; each
// module hands the registry a plain name -> implementation mapping.
//
// An optional HCL manifest may declare the public contract of each function
// (parameters, return type, description). ValidateRegistry checks that the Go
// implementations and the manifest agree, so a mismatch is caught at startup
// instead of at query time.
package registry
