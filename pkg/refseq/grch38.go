package refseq

// grch38NoAltAnalysisSet is the bundled assembly named in spec.md §4.4:
// "e.g. GRCh38_no_alt_analysis_set". Lengths are the GRCh38.p13 primary
// assembly's chr1-22, chrX, chrY, chrM contig lengths.
var grch38NoAltAnalysisSet = []struct {
	name   string
	length int64
}{
	{"chr1", 248956422},
	{"chr2", 242193529},
	{"chr3", 198295559},
	{"chr4", 190214555},
	{"chr5", 181538259},
	{"chr6", 170805979},
	{"chr7", 159345973},
	{"chr8", 145138636},
	{"chr9", 138394717},
	{"chr10", 133797422},
	{"chr11", 135086622},
	{"chr12", 133275309},
	{"chr13", 114364328},
	{"chr14", 107043718},
	{"chr15", 101991189},
	{"chr16", 90338345},
	{"chr17", 83257441},
	{"chr18", 80373285},
	{"chr19", 58617616},
	{"chr20", 64444167},
	{"chr21", 46709983},
	{"chr22", 50818468},
	{"chrX", 156040895},
	{"chrY", 57227415},
	{"chrM", 16569},
}

// AssemblyGRCh38NoAltAnalysisSet is the bundled assembly name accepted by
// EmitPutAssembly.
const AssemblyGRCh38NoAltAnalysisSet = "GRCh38_no_alt_analysis_set"

// bundledAssemblies maps a recognized assembly name to its static contig
// table. EmitPutAssembly rejects any name not present here.
var bundledAssemblies = map[string][]struct {
	name   string
	length int64
}{
	AssemblyGRCh38NoAltAnalysisSet: grch38NoAltAnalysisSet,
}
