// Package bagit implements the BagIt packaging format (RFC 8493) for bags
// stored as directories on a local file system.
//
// A bag is a base directory holding a payload directory "data/" and a
// number of tag files describing it: the bag declaration "bagit.txt", the
// optional "bag-info.txt", one payload manifest "manifest-<alg>.txt" per
// digest algorithm, and tag manifests "tagmanifest-<alg>.txt" which
// checksum the other tag files.
//
// This package allows for creating a bag around a payload that is already
// in place (CreateBag), reading one (OpenBag), verifying one (Validate), and
// bringing the manifests of a bag back in line with its payload after the
// payload changed (Rebag). The payload itself is never modified.
//
// Tag files are parsed strictly. Labels are compared case-insensitively,
// repeated labels are kept in order, and continuation lines (a value folded
// over several physical lines) are rejected rather than merged. Only BagIt
// version 1.0 with UTF-8 tag files is accepted.
//
// Fetch files are not retrieved. A bag containing "fetch.txt" is read, but
// the files it references are expected to be present in the payload.
//
// The BagIt spec can be found at https://www.rfc-editor.org/rfc/rfc8493.
package bagit

// File names inside a bag's base directory.
const (
	BagItTxt              = "bagit.txt"
	BagInfoTxt            = "bag-info.txt"
	FetchTxt              = "fetch.txt"
	DataDir               = "data"
	PayloadManifestPrefix = "manifest"
	TagManifestPrefix     = "tagmanifest"
)

// Labels of the bag declaration.
const (
	LabelBagItVersion = "BagIt-Version"
	LabelFileEncoding = "Tag-File-Character-Encoding"
)

// Reserved bag-info.txt labels.
const (
	LabelBaggingDate               = "Bagging-Date"
	LabelPayloadOxum               = "Payload-Oxum"
	LabelSoftwareAgent             = "Software-Agent"
	LabelSourceOrganization        = "Source-Organization"
	LabelOrganizationAddress       = "Organization-Address"
	LabelContactName               = "Contact-Name"
	LabelContactPhone              = "Contact-Phone"
	LabelContactEmail              = "Contact-Email"
	LabelExternalDescription       = "External-Description"
	LabelExternalIdentifier        = "External-Identifier"
	LabelBagSize                   = "Bag-Size"
	LabelBagGroupIdentifier        = "Bag-Group-Identifier"
	LabelBagCount                  = "Bag-Count"
	LabelInternalSenderIdentifier  = "Internal-Sender-Identifier"
	LabelInternalSenderDescription = "Internal-Sender-Description"
	LabelBagItProfileIdentifier    = "BagIt-Profile-Identifier"
)

const (
	// UTF8 is the only tag file character encoding supported.
	UTF8 = "UTF-8"

	// DefaultSoftwareAgent is written to the Software-Agent tag of new
	// bags unless the caller supplies one.
	DefaultSoftwareAgent = "bagr"
)

// Version1_0 is the version of the BagIt specification this package
// implements, and the only one it accepts.
var Version1_0 = Version{Major: 1, Minor: 0}
