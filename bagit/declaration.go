package bagit

import (
	"path/filepath"
)

// BagDeclaration is the content of bagit.txt: the BagIt version and the
// character encoding of the tag files. Only version 1.0 and UTF-8 are
// supported, so every BagDeclaration holds those values.
type BagDeclaration struct {
	version  Version
	encoding string
}

// NewBagDeclaration returns the declaration written into new bags.
func NewBagDeclaration() *BagDeclaration {
	return &BagDeclaration{
		version:  Version1_0,
		encoding: UTF8,
	}
}

// NewBagDeclarationWith returns a declaration for the given version and
// encoding, or an error if either is not supported.
func NewBagDeclarationWith(version Version, encoding string) (*BagDeclaration, error) {
	if version != Version1_0 {
		return nil, &UnsupportedVersionError{Value: version.String()}
	}
	if encoding != UTF8 {
		return nil, &UnsupportedEncodingError{Value: encoding}
	}
	return &BagDeclaration{version: version, encoding: encoding}, nil
}

// BagDeclarationFromTags builds a declaration from the tags of a bagit.txt
// file. Both the BagIt-Version and Tag-File-Character-Encoding tags must be
// present and hold supported values.
func BagDeclarationFromTags(tags *TagList) (*BagDeclaration, error) {
	versionTag, ok := tags.Get(LabelBagItVersion)
	if !ok {
		return nil, &MissingTagError{Label: LabelBagItVersion}
	}
	version, err := ParseVersion(versionTag.Value())
	if err != nil {
		return nil, &UnsupportedVersionError{Value: versionTag.Value()}
	}
	encodingTag, ok := tags.Get(LabelFileEncoding)
	if !ok {
		return nil, &MissingTagError{Label: LabelFileEncoding}
	}
	return NewBagDeclarationWith(version, encodingTag.Value())
}

// Version returns the declared BagIt version.
func (d *BagDeclaration) Version() Version { return d.version }

// Encoding returns the declared tag file character encoding.
func (d *BagDeclaration) Encoding() string { return d.encoding }

// Tags returns the two tags of bagit.txt, version first.
func (d *BagDeclaration) Tags() *TagList {
	// the values were checked when d was made, so these cannot fail
	return NewTagList(
		Tag{label: LabelBagItVersion, value: d.version.String()},
		Tag{label: LabelFileEncoding, value: d.encoding},
	)
}

// ReadBagDeclaration reads bagit.txt from the bag in dir.
func ReadBagDeclaration(dir string) (*BagDeclaration, error) {
	tags, err := ReadTagFile(filepath.Join(dir, BagItTxt))
	if err != nil {
		return nil, err
	}
	return BagDeclarationFromTags(tags)
}

// WriteBagDeclaration writes bagit.txt into dir.
func WriteBagDeclaration(dir string, d *BagDeclaration) error {
	return WriteTagFile(filepath.Join(dir, BagItTxt), d.Tags())
}
