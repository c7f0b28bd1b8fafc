package config

type WorkerKeyStruct struct {
	ImportJobsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ImportJobsQueue: "import_jobs_queue",
}
