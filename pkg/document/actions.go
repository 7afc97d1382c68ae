package document

func init() {
	register(func() StepInputs { return &RunShellScriptInputs{} })
	register(func() StepInputs { return &RunPowerShellScriptInputs{} })
	register(func() StepInputs { return &RunDocumentInputs{} })
	register(func() StepInputs { return &DownloadContentInputs{} })
	register(func() StepInputs { return &ConfigurePackageInputs{} })
	register(func() StepInputs { return &SoftwareInventoryInputs{} })
	register(func() StepInputs { return &ApplicationsInputs{} })
	register(func() StepInputs { return &PSModuleInputs{} })
	register(func() StepInputs { return &UpdateAgentInputs{} })
	register(func() StepInputs { return &UpdateSsmAgentInputs{} })
	register(func() StepInputs { return &ConfigureDockerInputs{} })
	register(func() StepInputs { return &RunDockerActionInputs{} })
	register(func() StepInputs { return &DomainJoinInputs{} })
	register(func() StepInputs { return &RefreshAssociationInputs{} })
}

// ScriptInputs is shared by the shell script actions.
type ScriptInputs struct {
	BaseInputs
	RunCommand       []string `json:"runCommand" ssm:"required"`
	TimeoutSeconds   Value    `json:"timeoutSeconds,omitzero"`
	WorkingDirectory *string  `json:"workingDirectory,omitzero"`
}

// RunShellScriptInputs runs a shell script on Linux and macOS.
type RunShellScriptInputs struct {
	ScriptInputs
}

func (*RunShellScriptInputs) Action() string { return "aws:runShellScript" }

// RunPowerShellScriptInputs runs a PowerShell script on Windows.
type RunPowerShellScriptInputs struct {
	ScriptInputs
}

func (*RunPowerShellScriptInputs) Action() string { return "aws:runPowerShellScript" }

// RunDocumentInputs runs another document, stored or local.
type RunDocumentInputs struct {
	BaseInputs
	DocumentType       string `json:"documentType" ssm:"required"`
	DocumentPath       string `json:"documentPath" ssm:"required"`
	DocumentParameters Value  `json:"documentParameters,omitzero"`
}

func (*RunDocumentInputs) Action() string { return "aws:runDocument" }

type DownloadContentInputs struct {
	BaseInputs
	SourceType      string  `json:"sourceType" ssm:"required"`
	SourceInfo      Value   `json:"sourceInfo" ssm:"required"`
	DestinationPath *string `json:"destinationPath,omitzero"`
}

func (*DownloadContentInputs) Action() string { return "aws:downloadContent" }

type ConfigurePackageInputs struct {
	BaseInputs
	Name                string  `json:"name" ssm:"required"`
	PackageAction       string  `json:"action" ssm:"required"`
	InstallationType    *string `json:"installationType,omitzero"`
	Version             *string `json:"version,omitzero"`
	AdditionalArguments Value   `json:"additionalArguments,omitzero"`
}

func (*ConfigurePackageInputs) Action() string { return "aws:configurePackage" }

// SoftwareInventoryInputs selects the inventory types to collect. Values are
// usually "Enabled"/"Disabled" or a parameter reference.
type SoftwareInventoryInputs struct {
	BaseInputs
	Applications                *string `json:"applications,omitzero"`
	AwsComponents               *string `json:"awsComponents,omitzero"`
	BillingInfo                 *string `json:"billingInfo,omitzero"`
	CustomInventory             *string `json:"customInventory,omitzero"`
	Files                       Value   `json:"files,omitzero"`
	InstanceDetailedInformation *string `json:"instanceDetailedInformation,omitzero"`
	NetworkConfig               *string `json:"networkConfig,omitzero"`
	Services                    *string `json:"services,omitzero"`
	WindowsRegistry             Value   `json:"windowsRegistry,omitzero"`
	WindowsRoles                *string `json:"windowsRoles,omitzero"`
	WindowsUpdates              *string `json:"windowsUpdates,omitzero"`
}

func (*SoftwareInventoryInputs) Action() string { return "aws:softwareInventory" }

type ApplicationsInputs struct {
	BaseInputs
	ApplicationAction string  `json:"action" ssm:"required"`
	Parameters        *string `json:"parameters,omitzero"`
	Source            string  `json:"source" ssm:"required"`
	SourceHash        *string `json:"sourceHash,omitzero"`
}

func (*ApplicationsInputs) Action() string { return "aws:applications" }

type PSModuleInputs struct {
	BaseInputs
	RunCommand       []string `json:"runCommand,omitzero"`
	Source           string   `json:"source" ssm:"required"`
	SourceHash       *string  `json:"sourceHash,omitzero"`
	TimeoutSeconds   Value    `json:"timeoutSeconds,omitzero"`
	WorkingDirectory *string  `json:"workingDirectory,omitzero"`
}

func (*PSModuleInputs) Action() string { return "aws:psModule" }

// AgentInputs is shared by the agent update actions.
type AgentInputs struct {
	BaseInputs
	AgentName      string  `json:"agentName" ssm:"required"`
	AllowDowngrade Value   `json:"allowDowngrade,omitzero"`
	Source         string  `json:"source" ssm:"required"`
	TargetVersion  *string `json:"targetVersion,omitzero"`
}

type UpdateAgentInputs struct {
	AgentInputs
}

func (*UpdateAgentInputs) Action() string { return "aws:updateAgent" }

type UpdateSsmAgentInputs struct {
	AgentInputs
}

func (*UpdateSsmAgentInputs) Action() string { return "aws:updateSsmAgent" }

type ConfigureDockerInputs struct {
	BaseInputs
	DockerAction string `json:"action" ssm:"required"`
}

func (*ConfigureDockerInputs) Action() string { return "aws:configureDocker" }

type RunDockerActionInputs struct {
	BaseInputs
	DockerAction     string   `json:"action" ssm:"required"`
	Cmd              *string  `json:"cmd,omitzero"`
	Container        *string  `json:"container,omitzero"`
	CPUShares        *string  `json:"cpuShares,omitzero"`
	Env              *string  `json:"env,omitzero"`
	Image            *string  `json:"image,omitzero"`
	Memory           *string  `json:"memory,omitzero"`
	Publish          *string  `json:"publish,omitzero"`
	TimeoutSeconds   Value    `json:"timeoutSeconds,omitzero"`
	User             *string  `json:"user,omitzero"`
	Volume           []string `json:"volume,omitzero"`
	WorkingDirectory *string  `json:"workingDirectory,omitzero"`
}

func (*RunDockerActionInputs) Action() string { return "aws:runDockerAction" }

type DomainJoinInputs struct {
	BaseInputs
	DirectoryID    string   `json:"directoryId" ssm:"required"`
	DirectoryName  string   `json:"directoryName" ssm:"required"`
	DirectoryOU    *string  `json:"directoryOU,omitzero"`
	DNSIPAddresses []string `json:"dnsIpAddresses,omitzero"`
}

func (*DomainJoinInputs) Action() string { return "aws:domainJoin" }

type RefreshAssociationInputs struct {
	BaseInputs
	AssociationIDs []string `json:"associationIds,omitzero"`
}

func (*RefreshAssociationInputs) Action() string { return "aws:refreshAssociation" }
