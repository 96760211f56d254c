package ids

import "fmt"

func errorf(typeMethod, format string, a ...interface{}) error {
	return fmt.Errorf("github.com/opaquecloud/lffs/ids."+typeMethod+": "+format, a...)
}
