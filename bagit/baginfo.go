package bagit

import (
	"fmt"
	"iter"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// labelRepeatable lists the reserved bag-info labels and whether each may
// appear more than once. Keys are lower case. It is never modified.
var labelRepeatable = map[string]bool{
	"bagging-date":                false,
	"payload-oxum":                false,
	"software-agent":              false,
	"bag-size":                    false,
	"bag-group-identifier":        false,
	"bag-count":                   false,
	"source-organization":         true,
	"organization-address":        true,
	"contact-name":                true,
	"contact-phone":               true,
	"contact-email":               true,
	"external-description":        true,
	"external-identifier":         true,
	"internal-sender-identifier":  true,
	"internal-sender-description": true,
	"bagit-profile-identifier":    true,
}

// IsRepeatable reports whether label may appear more than once in
// bag-info.txt. Labels that are not reserved are repeatable.
func IsRepeatable(label string) bool {
	repeatable, ok := labelRepeatable[strings.ToLower(label)]
	return !ok || repeatable
}

// BagInfo holds the tags of bag-info.txt. Adding a non-repeatable tag
// replaces any earlier tag with the same label.
type BagInfo struct {
	tags *TagList
}

// NewBagInfo returns an empty BagInfo.
func NewBagInfo() *BagInfo {
	return &BagInfo{tags: new(TagList)}
}

// BagInfoFromTags wraps a parsed tag list. The BagInfo takes ownership of
// tags. Duplicates of non-repeatable tags already in the list are kept as
// they are.
func BagInfoFromTags(tags *TagList) *BagInfo {
	if tags == nil {
		tags = new(TagList)
	}
	return &BagInfo{tags: tags}
}

// TagList returns the underlying list of tags, in order.
func (bi *BagInfo) TagList() *TagList {
	return bi.tags
}

// Clone returns a deep copy of bi.
func (bi *BagInfo) Clone() *BagInfo {
	return &BagInfo{tags: NewTagList(bi.tags.tags...)}
}

// AddTag adds a tag. If label is reserved and non-repeatable, every
// existing tag with that label is removed first.
func (bi *BagInfo) AddTag(label, value string) error {
	if IsRepeatable(label) {
		return bi.addRepeatable(label, value)
	}
	return bi.addNonRepeatable(label, value)
}

// Tag returns the first tag with the given label. Labels are case insensitive.
func (bi *BagInfo) Tag(label string) (Tag, bool) {
	return bi.tags.Get(label)
}

// Tags yields all of the tags with the given label. Labels are case
// insensitive. The sequence must be consumed before bi is changed.
func (bi *BagInfo) Tags(label string) iter.Seq[Tag] {
	return bi.tags.All(label)
}

func (bi *BagInfo) addNonRepeatable(label, value string) error {
	tag, err := NewTag(label, value)
	if err != nil {
		return err
	}
	bi.tags.Remove(label)
	bi.tags.Add(tag)
	return nil
}

func (bi *BagInfo) addRepeatable(label, value string) error {
	return bi.tags.AddTag(label, value)
}

// AddBaggingDate sets the Bagging-Date tag, replacing any earlier one.
func (bi *BagInfo) AddBaggingDate(v string) error {
	return bi.addNonRepeatable(LabelBaggingDate, v)
}

// BaggingDate returns the Bagging-Date tag.
func (bi *BagInfo) BaggingDate() (Tag, bool) { return bi.Tag(LabelBaggingDate) }

// AddPayloadOxum sets the Payload-Oxum tag, replacing any earlier one.
func (bi *BagInfo) AddPayloadOxum(v string) error {
	return bi.addNonRepeatable(LabelPayloadOxum, v)
}

// PayloadOxum returns the Payload-Oxum tag.
func (bi *BagInfo) PayloadOxum() (Tag, bool) { return bi.Tag(LabelPayloadOxum) }

// AddSoftwareAgent sets the Software-Agent tag, replacing any earlier one.
func (bi *BagInfo) AddSoftwareAgent(v string) error {
	return bi.addNonRepeatable(LabelSoftwareAgent, v)
}

// SoftwareAgent returns the Software-Agent tag.
func (bi *BagInfo) SoftwareAgent() (Tag, bool) { return bi.Tag(LabelSoftwareAgent) }

// AddBagSize sets the Bag-Size tag, replacing any earlier one.
func (bi *BagInfo) AddBagSize(v string) error {
	return bi.addNonRepeatable(LabelBagSize, v)
}

// BagSize returns the Bag-Size tag.
func (bi *BagInfo) BagSize() (Tag, bool) { return bi.Tag(LabelBagSize) }

// AddBagGroupIdentifier sets the Bag-Group-Identifier tag, replacing any earlier one.
func (bi *BagInfo) AddBagGroupIdentifier(v string) error {
	return bi.addNonRepeatable(LabelBagGroupIdentifier, v)
}

// BagGroupIdentifier returns the Bag-Group-Identifier tag.
func (bi *BagInfo) BagGroupIdentifier() (Tag, bool) { return bi.Tag(LabelBagGroupIdentifier) }

// AddBagCount sets the Bag-Count tag, replacing any earlier one.
func (bi *BagInfo) AddBagCount(v string) error {
	return bi.addNonRepeatable(LabelBagCount, v)
}

// BagCount returns the Bag-Count tag.
func (bi *BagInfo) BagCount() (Tag, bool) { return bi.Tag(LabelBagCount) }

// AddSourceOrganization adds a Source-Organization tag.
func (bi *BagInfo) AddSourceOrganization(v string) error {
	return bi.addRepeatable(LabelSourceOrganization, v)
}

// SourceOrganization yields every Source-Organization tag.
func (bi *BagInfo) SourceOrganization() iter.Seq[Tag] { return bi.Tags(LabelSourceOrganization) }

// AddOrganizationAddress adds an Organization-Address tag.
func (bi *BagInfo) AddOrganizationAddress(v string) error {
	return bi.addRepeatable(LabelOrganizationAddress, v)
}

// OrganizationAddress yields every Organization-Address tag.
func (bi *BagInfo) OrganizationAddress() iter.Seq[Tag] { return bi.Tags(LabelOrganizationAddress) }

// AddContactName adds a Contact-Name tag.
func (bi *BagInfo) AddContactName(v string) error {
	return bi.addRepeatable(LabelContactName, v)
}

// ContactName yields every Contact-Name tag.
func (bi *BagInfo) ContactName() iter.Seq[Tag] { return bi.Tags(LabelContactName) }

// AddContactPhone adds a Contact-Phone tag.
func (bi *BagInfo) AddContactPhone(v string) error {
	return bi.addRepeatable(LabelContactPhone, v)
}

// ContactPhone yields every Contact-Phone tag.
func (bi *BagInfo) ContactPhone() iter.Seq[Tag] { return bi.Tags(LabelContactPhone) }

// AddContactEmail adds a Contact-Email tag.
func (bi *BagInfo) AddContactEmail(v string) error {
	return bi.addRepeatable(LabelContactEmail, v)
}

// ContactEmail yields every Contact-Email tag.
func (bi *BagInfo) ContactEmail() iter.Seq[Tag] { return bi.Tags(LabelContactEmail) }

// AddExternalDescription adds an External-Description tag.
func (bi *BagInfo) AddExternalDescription(v string) error {
	return bi.addRepeatable(LabelExternalDescription, v)
}

// ExternalDescription yields every External-Description tag.
func (bi *BagInfo) ExternalDescription() iter.Seq[Tag] { return bi.Tags(LabelExternalDescription) }

// AddExternalIdentifier adds an External-Identifier tag.
func (bi *BagInfo) AddExternalIdentifier(v string) error {
	return bi.addRepeatable(LabelExternalIdentifier, v)
}

// ExternalIdentifier yields every External-Identifier tag.
func (bi *BagInfo) ExternalIdentifier() iter.Seq[Tag] { return bi.Tags(LabelExternalIdentifier) }

// AddInternalSenderIdentifier adds an Internal-Sender-Identifier tag.
func (bi *BagInfo) AddInternalSenderIdentifier(v string) error {
	return bi.addRepeatable(LabelInternalSenderIdentifier, v)
}

// InternalSenderIdentifier yields every Internal-Sender-Identifier tag.
func (bi *BagInfo) InternalSenderIdentifier() iter.Seq[Tag] {
	return bi.Tags(LabelInternalSenderIdentifier)
}

// AddInternalSenderDescription adds an Internal-Sender-Description tag.
func (bi *BagInfo) AddInternalSenderDescription(v string) error {
	return bi.addRepeatable(LabelInternalSenderDescription, v)
}

// InternalSenderDescription yields every Internal-Sender-Description tag.
func (bi *BagInfo) InternalSenderDescription() iter.Seq[Tag] {
	return bi.Tags(LabelInternalSenderDescription)
}

// AddBagItProfileIdentifier adds a BagIt-Profile-Identifier tag.
func (bi *BagInfo) AddBagItProfileIdentifier(v string) error {
	return bi.addRepeatable(LabelBagItProfileIdentifier, v)
}

// BagItProfileIdentifier yields every BagIt-Profile-Identifier tag.
func (bi *BagInfo) BagItProfileIdentifier() iter.Seq[Tag] {
	return bi.Tags(LabelBagItProfileIdentifier)
}

// ReadBagInfo reads bag-info.txt from the bag in dir.
func ReadBagInfo(dir string) (*BagInfo, error) {
	tags, err := ReadTagFile(filepath.Join(dir, BagInfoTxt))
	if err != nil {
		return nil, err
	}
	return BagInfoFromTags(tags), nil
}

// WriteBagInfo writes bag-info.txt into dir.
func WriteBagInfo(dir string, bi *BagInfo) error {
	return WriteTagFile(filepath.Join(dir, BagInfoTxt), bi.tags)
}

// PayloadOxum is the "octetstream sum" of a payload: the total number of
// bytes and the number of files.
type PayloadOxum struct {
	Octets int64 `json:"octets"`
	Files  int64 `json:"files"`
}

// ParsePayloadOxum parses a Payload-Oxum value of the form
// "<octets>.<files>".
func ParsePayloadOxum(s string) (PayloadOxum, error) {
	octets, files, ok := strings.Cut(s, ".")
	if !ok {
		return PayloadOxum{}, errors.Errorf("payload oxum %q has no '.'", s)
	}
	var po PayloadOxum
	var err error
	if po.Octets, err = strconv.ParseInt(octets, 10, 64); err != nil || po.Octets < 0 {
		return PayloadOxum{}, errors.Errorf("payload oxum %q has a bad octet count", s)
	}
	if po.Files, err = strconv.ParseInt(files, 10, 64); err != nil || po.Files < 0 {
		return PayloadOxum{}, errors.Errorf("payload oxum %q has a bad file count", s)
	}
	return po, nil
}

func (po PayloadOxum) String() string {
	return fmt.Sprintf("%d.%d", po.Octets, po.Files)
}

// Metric constants for humansize. Lowercased so as to be unexported.
const (
	kb int64 = 1000
	mb       = 1000 * kb
	gb       = 1000 * mb
	tb       = 1000 * gb
)

// humansize formats a byte count for the Bag-Size tag. Sizes are truncated,
// not rounded.
func humansize(size int64) string {
	var units string
	switch {
	case size < kb:
		units = "Bytes"
	case size < mb:
		size /= kb
		units = "KB"
	case size < gb:
		size /= mb
		units = "MB"
	case size < tb:
		size /= gb
		units = "GB"
	default:
		size /= tb
		units = "TB"
	}
	return fmt.Sprintf("%d %s", size, units)
}
