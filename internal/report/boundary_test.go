package report

import (
	"testing"

	"clusterprep/testutil"
)

func TestReportDoesNotReachStorage(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.StorageImportForbidden, "report renders documents; the runner stores them")
}
