package services

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/staffval/backend/internal/logger"
	"github.com/staffval/backend/internal/models"
	"gorm.io/gorm"
)

const sizingOperation = "erlang_c_sizing"

// ExecutorService claims job batches and runs the reference and candidate
// engines for each. The two engines share no state and run concurrently;
// once both results exist the comparator and accuracy tracker consume them.
type ExecutorService struct {
	db         *gorm.DB
	queue      *QueueService
	comparison *ComparisonService
	accuracy   *AccuracyService
	workerID   string
}

func NewExecutorService(db *gorm.DB, queue *QueueService, comparison *ComparisonService, accuracy *AccuracyService, workerID string) *ExecutorService {
	return &ExecutorService{
		db:         db,
		queue:      queue,
		comparison: comparison,
		accuracy:   accuracy,
		workerID:   workerID,
	}
}

// RunLoop pulls batches on a fixed interval until stopped. Per-job errors
// are recorded on the job and never abort the loop.
func (es *ExecutorService) RunLoop(stopChan <-chan struct{}, interval time.Duration, batchSize int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			processed := es.ProcessBatch(batchSize)
			if processed > 0 {
				logger.Info("Executor batch finished", map[string]interface{}{
					"worker_id": es.workerID,
					"processed": processed,
				})
			}
		case <-stopChan:
			logger.Info("Executor stopping", map[string]interface{}{"worker_id": es.workerID})
			return
		}
	}
}

// ProcessBatch claims and executes up to batchSize jobs, returning how many
// were attempted.
func (es *ExecutorService) ProcessBatch(batchSize int) int {
	jobs, err := es.queue.ClaimNext(es.workerID, batchSize)
	if err != nil {
		logger.Error("Failed to claim jobs", map[string]interface{}{
			"worker_id": es.workerID,
			"error":     err.Error(),
		})
		return 0
	}

	for i := range jobs {
		es.runJob(&jobs[i])
	}
	return len(jobs)
}

// engineRun captures one engine's outcome.
type engineRun struct {
	engine CalculationEngine
	kind   models.EngineKind
	out    *StaffingOutput
	timing executionTiming
	err    error
}

type executionTiming struct {
	durationMs int64
	memoryKB   int64
}

func (es *ExecutorService) runJob(job *models.Job) {
	log := logger.WithJob(job.ID, string(job.Type), "executor")

	input, err := parseStaffingInput(job.InputParameters)
	if err != nil {
		log.Error("Invalid input snapshot: " + err.Error())
		es.fail(job, &ExecutionError{Engine: "input", Err: err})
		return
	}

	// A prior attempt may have persisted a surviving result or comparison
	// before failing; the unique indexes would reject the rerun's inserts.
	if job.RetryCount > 0 {
		if err := es.clearPriorResults(job.ID); err != nil {
			log.Error("Failed to clear prior attempt rows: " + err.Error())
			es.fail(job, err)
			return
		}
	}

	runs := []*engineRun{
		{engine: NewReferenceEngine(), kind: models.EngineReference},
		{engine: NewCandidateEngine(job.Target, es.accuracy.HistoricalHandleTime), kind: models.EngineCandidate},
	}

	var wg sync.WaitGroup
	for _, run := range runs {
		wg.Add(1)
		go func(r *engineRun) {
			defer wg.Done()
			r.out, r.timing, r.err = executeTimed(r.engine, input)
		}(run)
	}
	wg.Wait()

	var results [2]*models.CalculationResult
	for i, run := range runs {
		es.recordPerformance(job.ID, run)
		if run.err != nil {
			continue
		}
		result, perr := es.persistResult(job, run)
		if perr != nil {
			run.err = perr
			continue
		}
		results[i] = result
	}

	for _, run := range runs {
		if run.err != nil {
			// A lone surviving result stays persisted for audit but cannot
			// be compared.
			es.fail(job, &ExecutionError{Engine: run.engine.Name(), Err: run.err})
			return
		}
	}

	cmp, err := es.comparison.Compare(job.ID, results[0], results[1])
	if err != nil {
		es.fail(job, err)
		return
	}

	es.accuracy.TrackComparison(job, results[0], results[1], cmp)

	if err := es.queue.Complete(job.ID); err != nil {
		log.Error("Failed to complete job: " + err.Error())
		return
	}
	log.Info("Job completed")
}

// clearPriorResults drops result and comparison rows left by an earlier
// attempt of the same job so the rerun can insert fresh ones.
func (es *ExecutorService) clearPriorResults(jobID uint) error {
	if err := es.db.Where("job_id = ?", jobID).Delete(&models.ComparisonResult{}).Error; err != nil {
		return fmt.Errorf("failed to clear prior comparison for job %d: %w", jobID, err)
	}
	if err := es.db.Where("job_id = ?", jobID).Delete(&models.CalculationResult{}).Error; err != nil {
		return fmt.Errorf("failed to clear prior results for job %d: %w", jobID, err)
	}
	return nil
}

func (es *ExecutorService) fail(job *models.Job, cause error) {
	if err := es.queue.Fail(job.ID, cause); err != nil {
		logger.WithJob(job.ID, string(job.Type), "executor").Error("Failed to record job failure: " + err.Error())
	}
}

// executeTimed runs one engine and measures wall clock plus allocation
// growth. The allocation delta is a coarse signal, good enough for the
// degradation check in the miner.
func executeTimed(engine CalculationEngine, input StaffingInput) (*StaffingOutput, executionTiming, error) {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	out, err := engine.Calculate(input)

	elapsed := time.Since(start)
	runtime.ReadMemStats(&after)

	timing := executionTiming{
		durationMs: elapsed.Milliseconds(),
		memoryKB:   int64(after.TotalAlloc-before.TotalAlloc) / 1024,
	}
	return out, timing, err
}

func (es *ExecutorService) persistResult(job *models.Job, run *engineRun) (*models.CalculationResult, error) {
	result := &models.CalculationResult{
		JobID:            job.ID,
		Engine:           run.kind,
		AlgorithmVersion: run.engine.Version(),
		InputSnapshot:    job.InputParameters,

		OfferedCalls:   run.out.OfferedCalls,
		HandledCalls:   run.out.HandledCalls,
		AbandonedCalls: run.out.AbandonedCalls,
		ServiceLevel:   run.out.ServiceLevel,
		AvgWaitTime:    run.out.AvgWaitTime,
		AvgHandleTime:  run.out.AvgHandleTime,
		AgentsRequired: run.out.AgentsRequired,
		Occupancy:      run.out.Occupancy,
		Utilization:    run.out.Utilization,

		TrafficIntensity: run.out.TrafficIntensity,
		WaitProbability:  run.out.WaitProbability,

		DurationMs: run.timing.durationMs,
		MemoryKB:   run.timing.memoryKB,
		Iterations: run.out.Iterations,
	}
	if len(run.out.SkillCoverage) > 0 {
		result.SkillCoverage = toJSONB(run.out.SkillCoverage)
	}

	if err := es.db.Create(result).Error; err != nil {
		return nil, fmt.Errorf("failed to persist %s result: %w", run.kind, err)
	}
	return result, nil
}

func (es *ExecutorService) recordPerformance(jobID uint, run *engineRun) {
	sample := &models.PerformanceSample{
		JobID:         jobID,
		OperationType: sizingOperation,
		Engine:        run.kind,
		DurationMs:    run.timing.durationMs,
		MemoryKB:      run.timing.memoryKB,
	}
	if run.out != nil {
		sample.Iterations = run.out.Iterations
		sample.Converged = run.out.Converged
	}
	if err := es.db.Create(sample).Error; err != nil {
		logger.WithEngine(jobID, string(run.kind)).Warn("Failed to record performance sample: " + err.Error())
	}
}

// parseStaffingInput converts the job's JSONB snapshot into engine input.
// Presence and numeric type of the required fields were already validated at
// submission; this re-checks defensively since snapshots are caller data.
func parseStaffingInput(params models.JSONB) (StaffingInput, error) {
	var in StaffingInput
	numeric := func(field string) (float64, error) {
		raw, ok := params[field]
		if !ok {
			return 0, fmt.Errorf("missing input field %q", field)
		}
		f, ok := toFloat(raw)
		if !ok {
			return 0, fmt.Errorf("input field %q is not numeric", field)
		}
		return f, nil
	}

	var err error
	if in.OfferedCalls, err = numeric("offered_calls"); err != nil {
		return in, err
	}
	if in.AvgHandleTime, err = numeric("avg_handle_time"); err != nil {
		return in, err
	}
	if in.IntervalSeconds, err = numeric("interval_seconds"); err != nil {
		return in, err
	}
	if in.TargetServiceLevel, err = numeric("target_service_level"); err != nil {
		return in, err
	}
	if in.TargetAnswerTime, err = numeric("target_answer_time"); err != nil {
		return in, err
	}

	// Optional fields default to zero.
	if v, ok := params["max_occupancy"]; ok {
		in.MaxOccupancy, _ = toFloat(v)
	}
	if v, ok := params["shrinkage"]; ok {
		in.Shrinkage, _ = toFloat(v)
	}
	if v, ok := params["abandon_rate"]; ok {
		in.AbandonRate, _ = toFloat(v)
	}
	if v, ok := params["skill_demand"]; ok {
		if skills, ok := v.(map[string]interface{}); ok {
			in.SkillDemand = make(map[string]float64, len(skills))
			for skill, raw := range skills {
				if f, ok := toFloat(raw); ok {
					in.SkillDemand[skill] = f
				}
			}
		}
	}
	return in, nil
}
