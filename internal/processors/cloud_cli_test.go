package processors_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/processors"
)

func TestCloudJSONKeepsImportantBranchesIntact(t *testing.T) {
	p := processors.NewCloudCLI(config.Default())

	in := `{"Reservations": [{"Instances": [{"InstanceId": "i-0abc", ` +
		`"State": {"Code": 16, "Name": "running"}, ` +
		`"Placement": {"AvailabilityZone": "us-east-1a", "Extras": {"phase": 1, "slot": 2}}, ` +
		`"NetworkInterfaces": ["eni-00", "eni-01", "eni-02", "eni-03", "eni-04", "eni-05", "eni-06", "eni-07"], ` +
		`"Tags": [{"Key": "Name", "Value": "api-server"}]}], "OwnerId": "123456789012"}]}`

	want := strings.Join([]string{
		`{`,
		`  "Reservations": [`,
		`    {`,
		`      "Instances": [`,
		`        {`,
		`          "InstanceId": "i-0abc",`,
		`          "State": {`,
		`            "Code": 16,`,
		`            "Name": "running"`,
		`          },`,
		`          "Placement": {`,
		`            "AvailabilityZone": "us-east-1a",`,
		`            "Extras": "{... 2 keys}"`,
		`          },`,
		`          "NetworkInterfaces": [`,
		`            "eni-00",`,
		`            "eni-01",`,
		`            "eni-02",`,
		`            "... (5 more items)"`,
		`          ],`,
		`          "Tags": [`,
		`            {`,
		`              "Key": "Name",`,
		`              "Value": "api-server"`,
		`            }`,
		`          ]`,
		`        }`,
		`      ],`,
		`      "OwnerId": "123456789012"`,
		`    }`,
		`  ]`,
		`}`,
	}, "\n")
	assert.Equal(t, want, p.Process("aws ec2 describe-instances", in))
}

func TestCloudJSONReportsCompressionForTallDocuments(t *testing.T) {
	p := processors.NewCloudCLI(config.Default())

	var elems []string
	for i := 0; i < 38; i++ {
		elems = append(elems, fmt.Sprintf(`  {"n": %d}`, i))
	}
	in := "[\n" + strings.Join(elems, ",\n") + "\n]"

	want := strings.Join([]string{
		`[`,
		`  {`,
		`    "n": 0`,
		`  },`,
		`  {`,
		`    "n": 1`,
		`  },`,
		`  {`,
		`    "n": 2`,
		`  },`,
		`  "... (35 more items)"`,
		`]`,
		``,
		`(40 lines compressed to 12)`,
	}, "\n")
	assert.Equal(t, want, p.Process("aws s3api list-objects --bucket b", in))
}

func TestCloudInvalidJSONTruncatesByLines(t *testing.T) {
	p := processors.NewCloudCLI(config.Default())

	lines := []string{"{"}
	for i := 0; i < 59; i++ {
		lines = append(lines, fmt.Sprintf("  entry %02d without quoting,", i))
	}

	want := append([]string{}, lines[:20]...)
	want = append(want, "... (30 lines omitted)")
	want = append(want, lines[50:]...)

	got := p.Process("az resource list", strings.Join(lines, "\n"))
	assert.Equal(t, strings.Join(want, "\n"), got)
}

func TestCloudTableKeepsHeadAndTailRows(t *testing.T) {
	p := processors.NewCloudCLI(config.Default())

	lines := []string{"NAME           ZONE            MACHINE_TYPE   STATUS"}
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("instance-%02d    us-central1-a   e2-medium      RUNNING", i))
	}

	want := []string{lines[0]}
	want = append(want, lines[1:16]...)
	want = append(want, "... (10 more rows)")
	want = append(want, lines[26:]...)

	got := p.Process("gcloud compute instances list", strings.Join(lines, "\n"))
	assert.Equal(t, strings.Join(want, "\n"), got)
}

func TestCloudShortTextUntouched(t *testing.T) {
	p := processors.NewCloudCLI(config.Default())

	in := "To sign in, use a web browser to open https://microsoft.com/devicelogin\nand enter the code ABCD-1234 to authenticate."
	assert.Equal(t, in, p.Process("az login", in))
}
