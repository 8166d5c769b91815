package file

import "github.com/dictscan/dictscan"

const Content dictscan.ResourceKind = "file_content"

func init() {
	dictscan.RegisterResourceKind(dictscan.ResourceKindInfo{
		Kind:         Content,
		IdentityKeys: []string{dictscan.MetaPath},
		Source:       "file",
	})
}
