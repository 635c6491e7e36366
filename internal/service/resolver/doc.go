// Package resolver finds the newest installer advertised by the metadata service.
//
// The service answers with a JSON array of version descriptors ordered
// newest first. Only the first descriptor is decoded; its url field is the
// download location of the latest installer.
package resolver
