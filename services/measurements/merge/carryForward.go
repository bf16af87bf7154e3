package merge

import (
	"time"

	"github.com/iulianpascalau/quality-collector/model"
)

// CarryForwardFirstSeen returns copies of the sources in which every entity gets the first seen timestamp of the
// same key from the previous measurement, when that one is earlier. Keys unknown to the previous measurement are
// left untouched.
func CarryForwardFirstSeen(previous *model.Measurement, sources []model.SourceMeasurement) []model.SourceMeasurement {
	result := cloneSources(sources)
	if previous == nil {
		return result
	}

	for i := range result {
		previousSource, found := previous.Source(result[i].SourceUUID)
		if !found {
			continue
		}

		firstSeen := make(map[string]string, len(previousSource.Entities))
		for _, entity := range previousSource.Entities {
			if len(entity.FirstSeen) > 0 {
				firstSeen[entity.Key] = entity.FirstSeen
			}
		}

		for j := range result[i].Entities {
			entity := &result[i].Entities[j]
			previousFirstSeen, exists := firstSeen[entity.Key]
			if exists && isEarlier(previousFirstSeen, entity.FirstSeen) {
				entity.FirstSeen = previousFirstSeen
			}
		}
	}

	return result
}

// CarryForwardEntityUserData returns copies of the sources holding the user annotations of the previous measurement.
// Annotations of keys no longer reported are stamped as orphaned on their first absence and dropped once they were
// orphaned for longer than the retention. Annotations already present on the new sources take precedence.
func CarryForwardEntityUserData(
	previous *model.Measurement,
	sources []model.SourceMeasurement,
	now time.Time,
	retention time.Duration,
) []model.SourceMeasurement {
	result := cloneSources(sources)
	if previous == nil {
		return result
	}

	nowText := model.FormatTimestamp(now)
	for i := range result {
		source := &result[i]
		previousSource, found := previous.Source(source.SourceUUID)
		if !found || len(previousSource.EntityUserData) == 0 {
			continue
		}

		keys := source.EntityKeys()
		carried := make(map[string]model.EntityUserData, len(previousSource.EntityUserData)+len(source.EntityUserData))
		for key, data := range previousSource.EntityUserData {
			_, present := keys[key]
			switch {
			case source.HasError():
				// a failed source reports no entities, absence means nothing
				carried[key] = data
			case present:
				data.OrphanedSince = ""
				carried[key] = data
			case len(data.OrphanedSince) == 0:
				data.OrphanedSince = nowText
				carried[key] = data
			case orphanExpired(data.OrphanedSince, now, retention):
				log.Debug("dropping orphaned entity user data", "source", source.SourceUUID, "key", key,
					"orphaned since", data.OrphanedSince)
			default:
				carried[key] = data
			}
		}
		for key, data := range source.EntityUserData {
			carried[key] = data
		}

		source.EntityUserData = carried
	}

	return result
}

// AnnotationBase returns the measurement the user annotations are carried from. The sources of the latest measurement
// hold the most recent annotations; a source that failed in it and lost its annotations falls back to the same source
// of the latest successful measurement.
func AnnotationBase(latest *model.Measurement, latestSuccessful *model.Measurement) *model.Measurement {
	if latest == nil {
		return latestSuccessful
	}
	if latestSuccessful == nil || !latest.HasError {
		return latest
	}

	base := latest.Clone()
	for i, source := range base.Sources {
		if !source.HasError() || len(source.EntityUserData) > 0 {
			continue
		}

		successfulSource, found := latestSuccessful.Source(source.SourceUUID)
		if found {
			base.Sources[i] = successfulSource.Clone()
		}
	}

	return &base
}

// StampFirstSeen returns copies of the sources in which the entities without a first seen timestamp get the provided one
func StampFirstSeen(sources []model.SourceMeasurement, now time.Time) []model.SourceMeasurement {
	result := cloneSources(sources)
	nowText := model.FormatTimestamp(now)
	for i := range result {
		for j := range result[i].Entities {
			if len(result[i].Entities[j].FirstSeen) == 0 {
				result[i].Entities[j].FirstSeen = nowText
			}
		}
	}

	return result
}

func cloneSources(sources []model.SourceMeasurement) []model.SourceMeasurement {
	if sources == nil {
		return nil
	}

	result := make([]model.SourceMeasurement, len(sources))
	for i, source := range sources {
		result[i] = source.Clone()
	}

	return result
}

func isEarlier(candidate string, current string) bool {
	if len(current) == 0 {
		return true
	}

	candidateTime, err := model.ParseTimestamp(candidate)
	if err != nil {
		return false
	}
	currentTime, err := model.ParseTimestamp(current)
	if err != nil {
		return true
	}

	return candidateTime.Before(currentTime)
}

func orphanExpired(orphanedSince string, now time.Time, retention time.Duration) bool {
	since, err := model.ParseTimestamp(orphanedSince)
	if err != nil {
		return true
	}

	return now.Sub(since) > retention
}
