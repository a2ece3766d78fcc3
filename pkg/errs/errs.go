// Package errs классифицирует ошибки конвейера по способу восстановления.
//
// Три вида ошибок:
//   - транспортные (брокер, БД, HTTP) - агент переподключается и продолжает;
//   - ошибки данных (одна плохая строка) - логируются, работа продолжается;
//   - нарушения инвариантов - ошибка программиста, процесс должен упасть.
//
// Обёртки ниже дают errors.As-диспетчеризацию между этими видами.
package errs

import "errors"

// InvariantError оборачивает нарушение инварианта: такую ошибку нельзя
// ни переподключением, ни повтором исправить - процесс должен упасть
// и быть перезапущен снаружи.
type InvariantError struct {
	Err error
}

func (e *InvariantError) Error() string {
	return e.Err.Error()
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Invariant оборачивает ошибку в InvariantError
//
// Пример:
//
//	if job.Identifier != "" {
//	    return errs.Invariant(ErrJobAlreadyPersisted)
//	}
func Invariant(err error) error {
	if err == nil {
		return nil
	}
	return &InvariantError{Err: err}
}

// IsInvariant проверяет, является ли ошибка нарушением инварианта
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// DataError оборачивает ошибку уровня данных: одна плохая строка или
// отсутствующая цена. Логируется и никогда не прерывает единицу работы.
type DataError struct {
	Err error
}

func (e *DataError) Error() string {
	return e.Err.Error()
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// Data оборачивает ошибку в DataError
func Data(err error) error {
	if err == nil {
		return nil
	}
	return &DataError{Err: err}
}

// IsData проверяет, является ли ошибка ошибкой уровня данных
func IsData(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}
