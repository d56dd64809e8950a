package inventory_test

import (
	stdjson "encoding/json"
	"strings"

	jsoniter "github.com/json-iterator/go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	sigyaml "sigs.k8s.io/yaml"

	"esxinventory/internal/constants"
	"esxinventory/internal/inventory"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type renderedInventory struct {
	All struct {
		Children []string `json:"children"`
	} `json:"all"`
	Meta struct {
		HostVars map[string]map[string]any `json:"hostvars"`
	} `json:"_meta"`
}

var _ = Describe("Render", func() {
	var (
		p   *inventory.Projector
		doc *inventory.Document
	)

	BeforeEach(func() {
		p = inventory.NewProjector(nil)
		var err error
		doc, err = p.BuildListDocument([]inventory.VMRecord{
			annotatedVM("a", "10.0.0.1", "group=web"),
			annotatedVM("b", "10.0.0.2", "group=db"),
			annotatedVM("c", "10.0.0.3", "group=web"),
		}, constants.GroupByAnnotationGroup, true)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should emit the Ansible inventory layout", func() {
		out, err := inventory.Render(doc, constants.OutputJSON)
		Expect(err).NotTo(HaveOccurred())

		var parsed renderedInventory
		Expect(json.Unmarshal(out, &parsed)).To(Succeed())
		Expect(parsed.All.Children).To(Equal([]string{"web", "db"}))
		Expect(parsed.Meta.HostVars).To(HaveLen(3))
		Expect(parsed.Meta.HostVars["10.0.0.2"]).To(HaveKeyWithValue("vm_name", "b"))

		var raw map[string]map[string]any
		Expect(json.Unmarshal(out, &raw)).To(Succeed())
		Expect(raw["web"]["hosts"]).To(Equal([]any{"10.0.0.1", "10.0.0.3"}))
		Expect(raw["db"]["hosts"]).To(Equal([]any{"10.0.0.2"}))
	})

	It("should serialise hostvars with the documented keys", func() {
		out, err := inventory.Render(doc, constants.OutputJSON)
		Expect(err).NotTo(HaveOccurred())

		var parsed renderedInventory
		Expect(json.Unmarshal(out, &parsed)).To(Succeed())
		Expect(parsed.Meta.HostVars["10.0.0.1"]).To(HaveLen(14))
		for _, key := range []string{
			"vm_name", "vm_state", "vm_template", "vm_path", "vm_instance_uuid",
			"vm_annotation", "vm_spec_memory_mb", "vm_spec_cpu_count", "vm_os_type_id",
			"vm_os_type_name", "vm_tools_status", "vm_tools_running_status",
			"vm_hostname", "vm_ip_address",
		} {
			Expect(parsed.Meta.HostVars["10.0.0.1"]).To(HaveKey(key))
		}
		Expect(parsed.Meta.HostVars["10.0.0.1"]["vm_spec_memory_mb"]).To(BeEquivalentTo(2048))
	})

	It("should indent with four spaces", func() {
		out, err := inventory.Render(doc, constants.OutputJSON)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(HavePrefix("{\n    \""))
		Expect(string(out)).NotTo(ContainSubstring("\t"))
	})

	It("should indent every nesting level", func() {
		out, err := inventory.Render(doc, constants.OutputJSON)
		Expect(err).NotTo(HaveOccurred())

		text := string(out)
		Expect(text).To(ContainSubstring("\n    \"_meta\": {\n        \"hostvars\": {\n            \"10.0.0.1\": {\n                \"vm_name\": \"a\","))
		Expect(text).To(ContainSubstring("\n    \"all\": {\n        \"children\": [\n            \"web\",\n            \"db\"\n        ]\n    },"))
		Expect(text).To(ContainSubstring("\n    \"db\": {\n        \"hosts\": [\n            \"10.0.0.2\"\n        ]\n    },"))
		Expect(text).To(HaveSuffix("\n}\n"))
	})

	It("should match the standard library layout", func() {
		for _, d := range []inventory.Treer{doc, p.BuildHostDocument(nil, "nobody"),
			p.BuildHostDocument([]inventory.VMRecord{annotatedVM("a", "10.0.0.1", "group=web")}, "a.lab")} {
			out, err := inventory.Render(d, constants.OutputJSON)
			Expect(err).NotTo(HaveOccurred())

			want, err := stdjson.MarshalIndent(d.Tree(), "", "    ")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(Equal(string(want) + "\n"))
		}
	})

	It("should be byte-for-byte stable across renders", func() {
		first, err := inventory.Render(doc, constants.OutputJSON)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 10; i++ {
			again, err := inventory.Render(doc, constants.OutputJSON)
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(first))
		}
	})

	It("should render an unmatched host as an empty object", func() {
		out, err := inventory.Render(p.BuildHostDocument(nil, "10.0.0.1"), constants.OutputJSON)
		Expect(err).NotTo(HaveOccurred())

		var parsed map[string]any
		Expect(json.Unmarshal(out, &parsed)).To(Succeed())
		Expect(parsed).NotTo(BeNil())
		Expect(parsed).To(BeEmpty())
	})

	It("should render a matched host as its attributes", func() {
		hostDoc := p.BuildHostDocument([]inventory.VMRecord{annotatedVM("a", "10.0.0.1", "group=web")}, "a.lab")
		out, err := inventory.Render(hostDoc, constants.OutputJSON)
		Expect(err).NotTo(HaveOccurred())

		var parsed map[string]any
		Expect(json.Unmarshal(out, &parsed)).To(Succeed())
		Expect(parsed).To(HaveKeyWithValue("vm_hostname", "a.lab"))
		Expect(parsed).To(HaveKeyWithValue("vm_template", false))
	})

	It("should render YAML when asked", func() {
		out, err := inventory.Render(doc, constants.OutputYAML)
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.TrimSpace(string(out))).NotTo(HavePrefix("{"))

		var parsed renderedInventory
		Expect(sigyaml.Unmarshal(out, &parsed)).To(Succeed())
		Expect(parsed.All.Children).To(Equal([]string{"web", "db"}))
	})

	It("should reject an unknown format", func() {
		_, err := inventory.Render(doc, "xml")
		Expect(err).To(MatchError(ContainSubstring("xml")))
	})
})
