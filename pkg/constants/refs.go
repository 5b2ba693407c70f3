package constants

// Git ref namespaces.
const (
	// RefsPrefix is the root of every git ref.
	RefsPrefix = "refs/"
	// QuarantinePrefix is where fetched refs land before being re-homed.
	QuarantinePrefix = "refs/imports/"
	// FetchRefSpec fetches every source ref into the quarantine namespace.
	FetchRefSpec = "+refs/*:refs/imports/*"
	// ChangesRefPrefix is the live namespace of patch set refs on the target.
	ChangesRefPrefix = "refs/changes/"
	// MetaConfigRef holds the project configuration, including the groups file.
	MetaConfigRef = "refs/meta/config"
	// GroupsFileName is the file of refs/meta/config listing referenced group UUIDs.
	GroupsFileName = "groups"
	// TransientRemoteName is the name of the remote configured for a fetch.
	TransientRemoteName = "origin"
)

// ChangeNamespaces lists the quarantined namespaces (relative to refs/) that belong to
// review changes and are left for revision replay instead of being promoted.
var ChangeNamespaces = []string{"changes/", "merge-requests/"}
